package session

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/oomph-ac/reckon/game"
	"github.com/oomph-ac/reckon/oerror"
	"github.com/oomph-ac/reckon/protocol"
)

// WritePacket writes a packet to the client. It is safe for concurrent use.
func (s *Session) WritePacket(pk protocol.Packet) (err error) {
	defer func() {
		if v := recover(); v != nil {
			s.log.Errorf("WritePacket() panic: %v", v)
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("conn_type", "server")
				scope.SetTag("player", s.name)
			})

			hub.Recover(oerror.New(fmt.Sprintf("%v", v)))
			hub.Flush(time.Second * 5)
			err = oerror.New("write panic: %v", v)
		}
	}()

	if s.closed.Load() {
		return oerror.New(game.ErrorSessionClosed, s.name)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = s.conn.Write(protocol.Encode(pk))
	return err
}
