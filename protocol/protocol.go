// Package protocol implements the framed serial protocol used to drive pins on
// a remote microcontroller.
//
// A frame is laid out as
//
//	len | seq | payload... | crc16 hi | crc16 lo | 0x7E
//
// where len counts the whole frame and the payload is a sequence of VLQ
// encoded integers starting with a message ID. Requests from the host carry
// MessageDest in the high nibble of seq and the device echoes seq in its
// reply. Unsolicited device frames use seq 0.
package protocol

// Version of the pin protocol
const Version = "1"

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	MessageDest     = 0x10
	MessageSeqMask  = 0x0F
	MessageSeqEvent = 0x00
)

// MessageMax is the capacity of a scratch output buffer
const MessageMax = 512
