package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"breathein/internal/api"
	"breathein/internal/config"
	"breathein/internal/daemon"
	"breathein/internal/logging"
	"breathein/internal/notifications"
)

const serviceName = "Breathein"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. A stale
// socket file is replaced.
func NewServer(ctx context.Context, path string, cfg *config.Config, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil || cfg == nil {
		return nil, errors.New("ipc server requires config and daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{
		daemon:   d,
		cfg:      cfg,
		notifier: notifications.NewService(cfg),
		logger:   logger,
		ctx:      ctx,
	}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until Close is called.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the scheduler if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun breathein stop"),
		)
	}
}

type service struct {
	daemon   *daemon.Daemon
	cfg      *config.Config
	notifier notifications.Service
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = api.FromDaemonStatus(s.daemon.Status())
	return nil
}

// Stop returns before the loop has drained; callers poll Status or the socket.
func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("scheduler stop requested via IPC", logging.String(logging.FieldEventType, "daemon_stop"))
	go s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) TriggerNow(_ TriggerRequest, resp *TriggerResponse) error {
	slot, err := s.daemon.TriggerNow(s.ctx)
	if err != nil {
		resp.Message = err.Error()
		return nil
	}
	resp.Triggered = true
	resp.Slot = slot.String()
	resp.Message = "upload triggered for " + slot.String()
	s.logger.Info("upload triggered via IPC",
		logging.String(logging.FieldSlot, slot.String()),
		logging.String(logging.FieldEventType, "trigger_now"),
	)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	if strings.TrimSpace(s.cfg.Notifications.NtfyTopic) == "" {
		resp.Message = "ntfy topic not configured"
		return nil
	}
	if err := s.notifier.Publish(s.ctx, notifications.EventTest, nil); err != nil {
		resp.Message = "failed to send notification: " + err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "test notification sent"
	return nil
}
