package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/database"
	"fintrack/internal/dto"
	"fintrack/internal/models"

	"github.com/stretchr/testify/suite"
)

// streamRecorder is a flushable response writer safe to inspect while the
// stream handler is still writing from its own goroutine.
type streamRecorder struct {
	mu      sync.Mutex
	header  http.Header
	body    bytes.Buffer
	status  int
	flushes int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (r *streamRecorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *streamRecorder) WriteHeader(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *streamRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
}

func (r *streamRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func (r *streamRecorder) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *streamRecorder) ContentType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Get("Content-Type")
}

func TestStreamHandler(t *testing.T) {
	suite.Run(t, new(StreamHandlerSuite))
}

type StreamHandlerSuite struct {
	suite.Suite
	stack   *testStack
	handler *StreamHandler
	user    *models.User
}

func (s *StreamHandlerSuite) SetupTest() {
	s.stack = newTestStack(s.T())
	s.handler = NewStreamHandler(s.stack.broadcaster, s.stack.tokens)
	s.user = database.CreateTestUser(s.T(), s.stack.db, "alice")
}

func (s *StreamHandlerSuite) token() string {
	token, _, err := s.stack.tokens.GenerateToken(s.user)
	s.Require().NoError(err)
	return token
}

// runStream invokes the handler in a goroutine, runs publish once the
// subscription is confirmed open, then cancels the request and returns
// the recorded stream.
func (s *StreamHandlerSuite) runStream(target, authHeader string, publish func(), want string) (*streamRecorder, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := newStreamRecorder()
	c := s.stack.echo.NewContext(req, rec)
	c.SetPath("/transactionHub")

	done := make(chan error, 1)
	go func() {
		done <- s.handler.Stream(c)
	}()

	// The initial comment line confirms the subscription is registered
	s.Eventually(func() bool {
		return strings.Contains(rec.Body(), ": connected")
	}, time.Second, 5*time.Millisecond)

	if publish != nil {
		publish()
	}
	if want != "" {
		s.Eventually(func() bool {
			return strings.Contains(rec.Body(), want)
		}, time.Second, 5*time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		return rec, err
	case <-time.After(time.Second):
		s.FailNow("stream handler did not return after context cancel")
		return rec, nil
	}
}

func (s *StreamHandlerSuite) TestStream_DeliversReceiveTransactionEvents() {
	rec, err := s.runStream("/transactionHub", "Bearer "+s.token(), func() {
		s.stack.broadcaster.Publish("alice", &dto.TransactionResponse{
			Username: "alice",
			Category: "Food",
			Amount:   12.5,
			Seq:      1,
		})
	}, "ReceiveTransaction")

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Status())
	s.Equal("text/event-stream", rec.ContentType())

	body := rec.Body()
	s.Contains(body, "event: ReceiveTransaction")
	s.Contains(body, `"category":"Food"`)
	s.Contains(body, `"seq":1`)
}

func (s *StreamHandlerSuite) TestStream_OtherUsersEventsNotDelivered() {
	database.CreateTestUser(s.T(), s.stack.db, "bob")

	rec, err := s.runStream("/transactionHub", "Bearer "+s.token(), func() {
		s.stack.broadcaster.Publish("bob", &dto.TransactionResponse{
			Username: "bob",
			Category: "Travel",
			Amount:   99,
			Seq:      1,
		})
		s.stack.broadcaster.Publish("alice", &dto.TransactionResponse{
			Username: "alice",
			Category: "Food",
			Amount:   12.5,
			Seq:      1,
		})
	}, `"category":"Food"`)

	s.NoError(err)
	s.NotContains(rec.Body(), "Travel")
}

func (s *StreamHandlerSuite) TestStream_QueryParamToken() {
	rec, err := s.runStream("/transactionHub?access_token="+s.token(), "", nil, "")

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Status())
	s.Contains(rec.Body(), ": connected")
}

func (s *StreamHandlerSuite) TestStream_MissingToken() {
	req := httptest.NewRequest(http.MethodGet, "/transactionHub", nil)
	rec := httptest.NewRecorder()
	c := s.stack.echo.NewContext(req, rec)

	s.NoError(s.handler.Stream(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *StreamHandlerSuite) TestStream_InvalidToken() {
	req := httptest.NewRequest(http.MethodGet, "/transactionHub?access_token=garbage", nil)
	rec := httptest.NewRecorder()
	c := s.stack.echo.NewContext(req, rec)

	s.NoError(s.handler.Stream(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
}
