package gpiocmd

// Reply is a fixed response line. It implements error so resolver and
// command steps can return it directly.
type Reply string

// Error implements error.
func (r Reply) Error() string { return string(r) }

// Replies, each sent followed by CRLF.
const (
	ReplyNoCommand           Reply = "No command specified"
	ReplyInvalidCommand      Reply = "Invalid command specified"
	ReplyNoRegister          Reply = "No register specified"
	ReplyInvalidRegister     Reply = "Invalid register specified"
	ReplyInvalidRegisterName Reply = "Invalid register name"
	ReplyInvalidPinNumber    Reply = "Invalid pin number"
	ReplyInvalidPinMask      Reply = "Invalid pin mask"
	ReplyModeRequired        Reply = "Mode required"
	ReplyInvalidMode         Reply = "Invalid mode"
	ReplyParseException      Reply = "Exception within parse command"
)

const crlf = "\r\n"

var errorReplies = map[string]Reply{}

func init() {
	for _, r := range []Reply{
		ReplyNoCommand,
		ReplyInvalidCommand,
		ReplyNoRegister,
		ReplyInvalidRegister,
		ReplyInvalidRegisterName,
		ReplyInvalidPinNumber,
		ReplyInvalidPinMask,
		ReplyModeRequired,
		ReplyInvalidMode,
		ReplyParseException,
	} {
		errorReplies[string(r)] = r
	}
}

// ErrorReply returns the Reply if line is one of the error replies.
func ErrorReply(line string) (Reply, bool) {
	r, ok := errorReplies[line]
	return r, ok
}
