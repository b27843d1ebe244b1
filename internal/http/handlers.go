package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mccayce/qboard/internal/models"
	"github.com/mccayce/qboard/internal/store"
)

// Error codes returned in the "error" field.
const (
	codeTextRequired     = "text_required"
	codeIDActionRequired = "id_action_required"
	codeIDOrAllRequired  = "id_or_all_required"
	codeUnknownAction    = "unknown_action"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeRateLimited      = "rate_limited"
	codeServerError      = "server_error"
)

// QuestionStore is what the endpoint needs from the record store adapter.
type QuestionStore interface {
	List(ctx context.Context) ([]models.Question, error)
	Create(ctx context.Context, text string) (models.Question, error)
	Patch(ctx context.Context, id string, action models.Action) (models.Question, error)
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

// --- Request and response bodies ---
type SubmitInput struct {
	Text string `json:"text"`
}

type ActionInput struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

type DeleteInput struct {
	ID  string `json:"id"`
	All bool   `json:"all"`
}

type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type OKBody struct {
	OK  bool             `json:"ok"`
	Row *models.Question `json:"row,omitempty"`
}

// --- Handlers ---
type Env struct {
	Questions QuestionStore
	Log       *zap.Logger
}

// HandleQuestions serves the single question resource, dispatched by verb.
func (e *Env) HandleQuestions(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		e.listQuestions(c)
	case http.MethodPost:
		e.submitQuestion(c)
	case http.MethodPatch:
		e.actOnQuestion(c)
	case http.MethodDelete:
		e.deleteQuestions(c)
	default:
		methodNotAllowed(c)
	}
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ErrorBody{Error: codeMethodNotAllowed})
}

func (e *Env) listQuestions(c *gin.Context) {
	items, err := e.Questions.List(c.Request.Context())
	if err != nil {
		e.serverError(c, "list", err)
		return
	}
	if items == nil {
		items = []models.Question{}
	}
	c.JSON(http.StatusOK, items)
}

func (e *Env) submitQuestion(c *gin.Context) {
	var input SubmitInput
	if err := bindBody(c, &input, "text"); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: codeTextRequired, Detail: err.Error()})
		return
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: codeTextRequired})
		return
	}

	q, err := e.Questions.Create(c.Request.Context(), text)
	if err != nil {
		e.serverError(c, "create", err)
		return
	}
	e.Log.Info("question submitted", zap.String("id", q.ID))
	c.JSON(http.StatusCreated, q)
}

func (e *Env) actOnQuestion(c *gin.Context) {
	var input ActionInput
	if err := bindBody(c, &input, "id", "action"); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: codeIDActionRequired, Detail: err.Error()})
		return
	}
	if input.ID == "" || input.Action == "" {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: codeIDActionRequired})
		return
	}
	action, err := models.ParseAction(input.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: codeUnknownAction})
		return
	}

	row, err := e.Questions.Patch(c.Request.Context(), input.ID, action)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorBody{Error: codeNotFound})
	case errors.Is(err, models.ErrUnknownAction):
		c.JSON(http.StatusBadRequest, ErrorBody{Error: codeUnknownAction})
	case err != nil:
		e.serverError(c, "patch", err)
	default:
		c.JSON(http.StatusOK, OKBody{OK: true, Row: &row})
	}
}

func (e *Env) deleteQuestions(c *gin.Context) {
	var input DeleteInput
	if err := bindBody(c, &input, "id", "all"); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: codeIDOrAllRequired, Detail: err.Error()})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case input.All:
		err = e.Questions.ClearAll(ctx)
		if err == nil {
			e.Log.Info("questions cleared")
		}
	case input.ID != "":
		err = e.Questions.Delete(ctx, input.ID)
	default:
		c.JSON(http.StatusBadRequest, ErrorBody{Error: codeIDOrAllRequired})
		return
	}
	if err != nil {
		e.serverError(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, OKBody{OK: true})
}

func (e *Env) serverError(c *gin.Context, op string, err error) {
	e.Log.Error("question store failed",
		zap.String("op", op),
		zap.String("request_id", RequestID(c)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: codeServerError, Detail: err.Error()})
}

// bindBody decodes a JSON object body into dst. Only the listed keys are
// read, and they must match exactly; encoding/json alone would also accept
// "ID" or "Action". An empty body leaves dst zeroed.
func bindBody(c *gin.Context, dst any, keys ...string) error {
	raw, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	exact := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			exact[k] = v
		}
	}
	filtered, err := json.Marshal(exact)
	if err != nil {
		return err
	}
	return json.Unmarshal(filtered, dst)
}
