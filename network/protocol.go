package network

// Message IDs for the watch feed. Payloads are JSON.
const (
	MsgTypeHeartbeat    = 1
	MsgTypeGameStart    = 301
	MsgTypeRoundStart   = 302
	MsgTypeTurn         = 303
	MsgTypeVoteOpened   = 304
	MsgTypeVoteResolved = 305
	MsgTypeSpyGuess     = 306
	MsgTypeRoundEnd     = 307
	MsgTypeGameEnd      = 308
)
