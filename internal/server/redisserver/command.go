package redisserver

import (
	"context"
	"crypto/subtle"
	"sync"

	"golang.org/x/time/rate"

	"github.com/yndnr/nskv/internal/core/command"
	"github.com/yndnr/nskv/internal/telemetry/logger"
)

const (
	errNoAuth       = command.Error("NOAUTH Authentication required.")
	errWrongPass    = command.Error("WRONGPASS invalid username-password pair or user is disabled.")
	errNoPassword   = command.Error("ERR AUTH <password> called without any password configured for the default user. Are you sure your configuration is correct?")
	errRateLimited  = command.Error("ERR rate limit exceeded")
	errNestedMulti  = command.Error("ERR MULTI calls can not be nested")
	errExecNoMulti  = command.Error("ERR EXEC without MULTI")
	errDiscNoMulti  = command.Error("ERR DISCARD without MULTI")
	errAuthArity    = command.Error("ERR wrong number of arguments for 'auth' command")
	queued          = command.Status("QUEUED")
	defaultUserName = "default"
)

// session is the per-connection protocol state.
type session struct {
	authenticated bool

	// multi is set between MULTI and EXEC/DISCARD. dirty records that a
	// queued command failed validation.
	multi  bool
	dirty  bool
	queued [][]string
}

func (s *session) reset() {
	s.multi = false
	s.dirty = false
	s.queued = nil
}

// handle executes one command and writes its reply into c.bw. It reports
// whether the connection should close after the flush.
func (s *Server) handle(ctx context.Context, c *Conn, raw [][]byte) bool {
	name := normalizeCommandName(raw[0])
	argv := make([]string, len(raw))
	for i, b := range raw {
		argv[i] = string(b)
	}

	reply, quit := s.dispatch(ctx, c, name, argv)
	if err := WriteReply(c.bw, reply); err != nil {
		logger.L(ctx).Error("write reply failed", "command", name, "error", err)
		return true
	}

	var rerr error
	if e, ok := reply.(command.Error); ok {
		rerr = e
	}
	s.metrics.ServerCommand(metricName(name), rerr)
	return quit
}

func (s *Server) dispatch(ctx context.Context, c *Conn, name string, argv []string) (command.Reply, bool) {
	sess := &c.session

	switch name {
	case "QUIT":
		return command.OK, true
	case "AUTH":
		return s.auth(ctx, sess, argv[1:]), false
	case "HELLO", "CLIENT":
		// RESP2 only; clients fall back to AUTH when HELLO fails.
		return command.Error("ERR unknown command '" + argv[0] + "'"), false
	}

	if !sess.authenticated && name != "PING" {
		s.metrics.ServerReject("noauth")
		return errNoAuth, false
	}
	if !s.limits.allow(c.ip) {
		s.metrics.ServerReject("rate_limit")
		return errRateLimited, false
	}

	switch name {
	case "MULTI":
		if sess.multi {
			return errNestedMulti, false
		}
		sess.multi = true
		return command.OK, false
	case "DISCARD":
		if !sess.multi {
			return errDiscNoMulti, false
		}
		sess.reset()
		return command.OK, false
	case "EXEC":
		if !sess.multi {
			return errExecNoMulti, false
		}
		cmds, dirty := sess.queued, sess.dirty
		sess.reset()
		if dirty {
			return command.ErrExecAbort, false
		}
		return s.engine.ExecMulti(cmds), false
	}

	if sess.multi {
		if err := s.engine.Check(argv); err != nil {
			sess.dirty = true
			return err, false
		}
		sess.queued = append(sess.queued, argv)
		return queued, false
	}
	return s.engine.Exec(argv), false
}

func (s *Server) auth(ctx context.Context, sess *session, args []string) command.Reply {
	var user, pass string
	switch len(args) {
	case 1:
		user, pass = defaultUserName, args[0]
	case 2:
		user, pass = args[0], args[1]
	default:
		return errAuthArity
	}

	if s.cfg.Password == "" {
		return errNoPassword
	}
	if user != defaultUserName || subtle.ConstantTimeCompare([]byte(pass), []byte(s.cfg.Password)) != 1 {
		logger.L(ctx).Warn("authentication failed", "user", user)
		s.metrics.ServerReject("auth")
		return errWrongPass
	}
	sess.authenticated = true
	return command.OK
}

// metricName keeps the command label bounded.
func metricName(name string) string {
	switch name {
	case "QUIT", "AUTH", "HELLO", "CLIENT", "MULTI", "EXEC", "DISCARD":
		return name
	}
	if command.Known(name) {
		return name
	}
	return "UNKNOWN"
}

// limiters holds one token bucket per client IP, dropped when the last
// connection from that IP closes.
type limiters struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	byIP  map[string]*rate.Limiter
	inUse map[string]int
}

func newLimiters(perSecond float64) *limiters {
	if perSecond <= 0 {
		return &limiters{}
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &limiters{
		limit: rate.Limit(perSecond),
		burst: burst,
		byIP:  make(map[string]*rate.Limiter),
		inUse: make(map[string]int),
	}
}

func (l *limiters) enabled() bool {
	return l.byIP != nil
}

func (l *limiters) acquire(ip string) {
	if !l.enabled() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byIP[ip]; !ok {
		l.byIP[ip] = rate.NewLimiter(l.limit, l.burst)
	}
	l.inUse[ip]++
}

func (l *limiters) release(ip string) {
	if !l.enabled() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inUse[ip]--
	if l.inUse[ip] <= 0 {
		delete(l.inUse, ip)
		delete(l.byIP, ip)
	}
}

func (l *limiters) allow(ip string) bool {
	if !l.enabled() {
		return true
	}
	l.mu.Lock()
	lim := l.byIP[ip]
	l.mu.Unlock()
	return lim == nil || lim.Allow()
}
