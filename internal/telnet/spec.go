package telnet

import "fmt"

// This package speaks just enough of the Telnet protocol to get a client past
// option negotiation and onto a login prompt. Every option the remote host
// offers (WILL) or asks for (DO) is refused.
//
// RFCs of particular interest:
// - RFC 854  : Telnet Protocol Specification
// - RFC 855  : Telnet Option Specifications
// - RFC 857  : Telnet Echo Option
// - RFC 858  : Telnet Suppress Go Ahead Option
// - RFC 1143 : The Q Method of Implementing TELNET Option Negotiation

const (
	// RFC 854: Telnet Protocol Specification
	SE   byte = 240 // Sub negotiation End
	NOP  byte = 241 // No Operation
	DM   byte = 242 // Data Mark
	BRK  byte = 243 // Break
	IP   byte = 244 // Interrupt Process
	AO   byte = 245 // Abort Output
	AYT  byte = 246 // Are You There?
	EC   byte = 247 // Erase Character
	EL   byte = 248 // Erase Line
	GA   byte = 249 // Go Ahead
	SB   byte = 250 // Sub negotiation Begin
	WILL byte = 251 // Will
	WONT byte = 252 // Won't
	DO   byte = 253 // Do
	DONT byte = 254 // Don't
	IAC  byte = 255 // Interpret As Command

	// Telnet Options
	TransmitBinary byte = 0  // RFC 856
	Echo           byte = 1  // RFC 857
	SGA            byte = 3  // RFC 858 - Suppress Go Ahead
	Status         byte = 5  // RFC 859
	TimingMark     byte = 6  // RFC 860
	TType          byte = 24 // RFC 1091 - Terminal Type
	EOR            byte = 25 // RFC 885 - End of Record
	NAWS           byte = 31 // RFC 1073 - Negotiate About Window Size
	TerminalSpeed  byte = 32 // RFC 1079
	RemoteFlow     byte = 33 // RFC 1372
	Linemode       byte = 34 // RFC 1184
	XDisplayLoc    byte = 35 // RFC 1096
	NewEnvironOld  byte = 36 // RFC 1408
	Authentication byte = 37 // RFC 2941
	Encrypt        byte = 38 // RFC 2946
	NewEnviron     byte = 39 // RFC 1572
	Charset        byte = 42 // RFC 2066
)

// CommandNames maps Telnet command bytes to their string representation.
var CommandNames = map[byte]string{
	SE:   "SE",
	NOP:  "NOP",
	DM:   "DM",
	BRK:  "BRK",
	IP:   "IP",
	AO:   "AO",
	AYT:  "AYT",
	EC:   "EC",
	EL:   "EL",
	GA:   "GA",
	SB:   "SB",
	WILL: "WILL",
	WONT: "WONT",
	DO:   "DO",
	DONT: "DONT",
	IAC:  "IAC",
}

// OptionNames maps Telnet option bytes to their string representation.
var OptionNames = map[byte]string{
	TransmitBinary: "TransmitBinary",
	Echo:           "Echo",
	SGA:            "SGA",
	Status:         "Status",
	TimingMark:     "TimingMark",
	TType:          "TType",
	EOR:            "EOR",
	NAWS:           "NAWS",
	TerminalSpeed:  "TerminalSpeed",
	RemoteFlow:     "RemoteFlow",
	Linemode:       "Linemode",
	XDisplayLoc:    "XDisplayLoc",
	NewEnvironOld:  "NewEnvironOld",
	Authentication: "Authentication",
	Encrypt:        "Encrypt",
	NewEnviron:     "NewEnviron",
	Charset:        "Charset",
}

// CommandName returns a printable name for cmd, falling back to its decimal value.
func CommandName(cmd byte) string {
	if name, ok := CommandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", cmd)
}

// OptionName returns a printable name for option, falling back to its decimal value.
func OptionName(option byte) string {
	if name, ok := OptionNames[option]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", option)
}

// IsNegotiation reports whether cmd is one of WILL, WONT, DO or DONT.
func IsNegotiation(cmd byte) bool {
	return cmd == WILL || cmd == WONT || cmd == DO || cmd == DONT
}
