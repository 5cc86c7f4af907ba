// Package fileserver is a minimal example virtual-process plugin, ported
// from the original simulator's file-transfer example. It exists to give
// hosts.Registry's process-registration path a concrete, testable
// executable to resolve and register; the controller never imports this
// package directly, only addresses it by path through config.ProcessOptions.
package fileserver

// Code is a file-server operation outcome, mirroring the original plugin's
// fileserver_code enum.
type Code int

const (
	Success Code = iota
	Closed
	ErrInvalid
	ErrFatal
	ErrBadSocket
	ErrWouldBlock
	ErrBufSpace
	ErrSocket
	ErrBind
	ErrListen
	ErrAccept
	ErrRecv
	ErrSend
	ErrClose
)

// codeStrings must stay in sync with the Code constants above.
var codeStrings = []string{
	"FS_SUCCESS", "FS_CLOSED", "FS_ERR_INVALID", "FS_ERR_FATAL", "FS_ERR_BADSD",
	"FS_ERR_WOULDBLOCK", "FS_ERR_BUFSPACE", "FS_ERR_SOCKET", "FS_ERR_BIND",
	"FS_ERR_LISTEN", "FS_ERR_ACCEPT", "FS_ERR_RECV", "FS_ERR_SEND", "FS_ERR_CLOSE",
}

// CodeToString returns the string name of a Code, or "" if it is out of
// range. Bound checked against the element count of the table, not its
// byte size — the original's index check compared against sizeof() of the
// array, a byte count, which happened to work there only because each
// element was a pointer of uniform size; that comparison does not carry
// over here and is not replicated.
func CodeToString(c Code) (string, bool) {
	if c < 0 || int(c) >= len(codeStrings) {
		return "", false
	}
	return codeStrings[c], true
}

// Options configures a file-server instance. DocRoot and ListenPort mirror
// the original plugin's start parameters; MaxConnections bounds the number
// of concurrently accepted peers.
type Options struct {
	DocRoot        string
	ListenPort     uint16
	MaxConnections int
}

// Server is a placeholder virtual-process body: it holds no real socket
// state (this module simulates network *topology and timing*, not
// application-level byte transfer), but it validates the same inputs the
// original plugin's start routine did, so a host registered with a
// fileserver process gets immediate, useful feedback on a bad
// configuration.
type Server struct {
	opts Options
}

// New validates opts and returns a Server, or ErrInvalid if the docroot is
// empty or the connection limit is non-positive.
func New(opts Options) (*Server, Code) {
	if opts.DocRoot == "" || opts.MaxConnections <= 0 {
		return nil, ErrInvalid
	}
	return &Server{opts: opts}, Success
}

// Options returns the server's configuration.
func (s *Server) Options() Options { return s.opts }
