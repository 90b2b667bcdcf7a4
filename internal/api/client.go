// Package api is the typed client for the quiz platform's REST API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/attempttoken"
	"github.com/stemsi/exstem-console/internal/gateway"
	"github.com/stemsi/exstem-console/internal/model"
)

// ErrInvalidAttemptLink is returned when an attempt link cannot be decoded.
var ErrInvalidAttemptLink = errors.New("invalid attempt link")

// AttemptRoute is the public path prefix of attempt links.
const AttemptRoute = "/attempt/"

// Client issues API calls through a gateway.
type Client struct {
	gw            *gateway.Gateway
	codec         *attempttoken.Codec
	publicBaseURL string
	log           zerolog.Logger
}

// New creates a Client. publicBaseURL is the root of student-facing links.
func New(gw *gateway.Gateway, codec *attempttoken.Codec, publicBaseURL string, log zerolog.Logger) *Client {
	return &Client{
		gw:            gw,
		codec:         codec,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}
}

// Gateway exposes the underlying request gateway.
func (c *Client) Gateway() *gateway.Gateway {
	return c.gw
}

// ─── Auth ───────────────────────────────────────────────────────────────

// Login authenticates and sets the local authenticated hint.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	err := c.gw.Do(ctx, &gateway.Request{
		Method: http.MethodPost,
		Path:   gateway.LoginPath,
		Body:   model.LoginRequest{Username: username, Password: password},
	}, &user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	c.gw.AuthFlag().Set(ctx)
	c.log.Info().Str("username", user.Username).Msg("Logged in")
	return &user, nil
}

// Logout ends the session. The local hint is cleared even if the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.gw.AuthFlag().Clear(context.WithoutCancel(ctx))

	if err := c.gw.Do(ctx, &gateway.Request{Method: http.MethodPost, Path: gateway.LogoutPath}, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, "/api/auth/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// IsAuthenticated reads the local hint only; it does not contact the server.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.gw.AuthFlag().IsSet(ctx)
}

// ─── Quizzes ────────────────────────────────────────────────────────────

func (c *Client) ListQuizzes(ctx context.Context) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	if err := c.get(ctx, "/api/quizzes/", nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (c *Client) GetQuiz(ctx context.Context, id int64) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := c.get(ctx, quizPath(id), nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *Client) CreateQuiz(ctx context.Context, req model.CreateQuizRequest) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := c.send(ctx, http.MethodPost, "/api/quizzes/", req, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *Client) UpdateQuiz(ctx context.Context, id int64, req model.UpdateQuizRequest) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := c.send(ctx, http.MethodPatch, quizPath(id), req, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *Client) DeleteQuiz(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, quizPath(id), nil, nil)
}

// PublishQuiz opens the quiz to attempts by setting its start time.
func (c *Client) PublishQuiz(ctx context.Context, id int64) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := c.send(ctx, http.MethodPost, quizPath(id)+"publish/", nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// CloseQuiz stops new attempts by setting the end time.
func (c *Client) CloseQuiz(ctx context.Context, id int64) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := c.send(ctx, http.MethodPost, quizPath(id)+"close/", nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// ─── Slots & banks ──────────────────────────────────────────────────────

func (c *Client) ListSlots(ctx context.Context, quizID int64) ([]model.Slot, error) {
	var slots []model.Slot
	if err := c.get(ctx, quizPath(quizID)+"slots/", nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *Client) AddSlot(ctx context.Context, quizID int64, req model.AddSlotRequest) (*model.Slot, error) {
	var slot model.Slot
	if err := c.send(ctx, http.MethodPost, quizPath(quizID)+"slots/", req, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (c *Client) RemoveSlot(ctx context.Context, quizID, slotID int64) error {
	return c.send(ctx, http.MethodDelete, quizPath(quizID)+"slots/"+strconv.FormatInt(slotID, 10)+"/", nil, nil)
}

func (c *Client) ListBanks(ctx context.Context) ([]model.ProblemBank, error) {
	var banks []model.ProblemBank
	if err := c.get(ctx, "/api/banks/", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

func (c *Client) ListBankProblems(ctx context.Context, bankID int64) ([]model.Problem, error) {
	var problems []model.Problem
	if err := c.get(ctx, "/api/banks/"+strconv.FormatInt(bankID, 10)+"/problems/", nil, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

// ─── Attempts ───────────────────────────────────────────────────────────

// GetPublicQuiz loads the student-facing view of a quiz.
func (c *Client) GetPublicQuiz(ctx context.Context, publicID string) (*model.PublicQuiz, error) {
	var quiz model.PublicQuiz
	if err := c.get(ctx, publicQuizPath(publicID), nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c *Client) StartAttempt(ctx context.Context, publicID, studentIdentifier string) (*model.Attempt, error) {
	var attempt model.Attempt
	req := model.StartAttemptRequest{StudentIdentifier: studentIdentifier}
	if err := c.send(ctx, http.MethodPost, publicQuizPath(publicID)+"attempts/", req, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (c *Client) GetAttempt(ctx context.Context, id int64) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := c.get(ctx, attemptPath(id), nil, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (c *Client) SubmitAttempt(ctx context.Context, id int64, answers []model.Answer) (*model.Attempt, error) {
	var attempt model.Attempt
	req := model.SubmitAttemptRequest{Answers: answers}
	if err := c.send(ctx, http.MethodPost, attemptPath(id)+"submit/", req, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// AttemptLink returns the shareable URL of an attempt.
func (c *Client) AttemptLink(id int64) string {
	return c.publicBaseURL + AttemptRoute + url.PathEscape(c.codec.Encode(id))
}

// AttemptIDFromLink accepts a full attempt URL or a bare token.
func (c *Client) AttemptIDFromLink(link string) (int64, error) {
	token := strings.TrimSpace(link)
	if u, err := url.Parse(token); err == nil && u.Path != "" {
		token = u.Path
	}
	token = strings.Trim(token, "/")
	if i := strings.LastIndex(token, "/"); i >= 0 {
		token = token[i+1:]
	}
	if unescaped, err := url.PathUnescape(token); err == nil {
		token = unescaped
	}

	id, ok := c.codec.Decode(token)
	if !ok {
		return 0, ErrInvalidAttemptLink
	}
	return id, nil
}

// ResolveAttemptLink decodes link and loads the attempt it points to.
func (c *Client) ResolveAttemptLink(ctx context.Context, link string) (*model.Attempt, error) {
	id, err := c.AttemptIDFromLink(link)
	if err != nil {
		return nil, err
	}
	return c.GetAttempt(ctx, id)
}

// ─── Analytics ──────────────────────────────────────────────────────────

func (c *Client) GetAnalytics(ctx context.Context, quizID int64) (*model.Analytics, error) {
	var analytics model.Analytics
	if err := c.get(ctx, quizPath(quizID)+"analytics/", nil, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	return c.gw.Do(ctx, &gateway.Request{Method: http.MethodGet, Path: path, Query: query}, dst)
}

func (c *Client) send(ctx context.Context, method, path string, body any, dst any) error {
	return c.gw.Do(ctx, &gateway.Request{Method: method, Path: path, Body: body}, dst)
}

func quizPath(id int64) string {
	return "/api/quizzes/" + strconv.FormatInt(id, 10) + "/"
}

func attemptPath(id int64) string {
	return "/api/attempts/" + strconv.FormatInt(id, 10) + "/"
}

func publicQuizPath(publicID string) string {
	return "/api/public/quizzes/" + url.PathEscape(publicID) + "/"
}
