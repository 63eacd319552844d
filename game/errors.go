package game

const (
	ErrorInvalidExtents   = "collision extents are invalid: %v"
	ErrorSubStepOvershoot = "sub-step displacement %v exceeds bound %v on axis %d"
	ErrorUnknownSector    = "unknown sector %d"
	ErrorUnknownPacket    = "unknown packet: %d"
	ErrorCheatKickMessage = "Removed from the server: movement validation failed (%s)."
	ErrorCheatWarnMessage = "Warning: your movement is being corrected (%s)."
	ErrorSessionClosed    = "session of %s was closed"
)
