package usecase

import (
	"context"
	"io"
	"sync"

	"github.com/vivatalk/mediator/domain"
)

type stubCompleter struct {
	mu        sync.Mutex
	reply     string
	err       error
	chunks    []string
	streamErr error
	openErr   error
	requests  []domain.CompletionRequest
	closed    int
}

func (s *stubCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.reply, s.err
}

func (s *stubCompleter) Stream(ctx context.Context, req domain.CompletionRequest) (domain.CompletionStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &stubStream{owner: s, chunks: append([]string{}, s.chunks...), err: s.streamErr}, nil
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type stubStream struct {
	owner  *stubCompleter
	chunks []string
	err    error
}

func (s *stubStream) Recv() (string, error) {
	if len(s.chunks) > 0 {
		c := s.chunks[0]
		s.chunks = s.chunks[1:]
		return c, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *stubStream) Close() error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.owner.closed++
	return nil
}

type stubAvatar struct {
	resp       domain.VideoSessionResponse
	err        error
	replica    domain.Replica
	replicaErr error
	requests   []domain.VideoSessionRequest
}

func (s *stubAvatar) CreateConversation(ctx context.Context, req domain.VideoSessionRequest) (domain.VideoSessionResponse, error) {
	s.requests = append(s.requests, req)
	return s.resp, s.err
}

func (s *stubAvatar) GetReplica(ctx context.Context, replicaID string) (domain.Replica, error) {
	return s.replica, s.replicaErr
}

type stubIntroducer struct {
	intro string
	calls int
}

func (s *stubIntroducer) Introduce(ctx context.Context, personaID string) (string, error) {
	s.calls++
	return s.intro, nil
}
