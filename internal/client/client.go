// Package client talks to the persistence and grading service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

type Config struct {
	BaseURL string
	// Token is a bearer token, typically the access_token from Login.
	Token string
	// Client-credentials flow; used instead of Token when TokenURL is set.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client implements authoring.TestStore, resolution.Grader and
// resolution.ResultSource.
type Client struct {
	base *url.URL
	http *http.Client
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	var h *http.Client
	switch {
	case cfg.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(context.Background())
	case cfg.Token != "":
		h = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}))
	default:
		h = &http.Client{}
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{base: base, http: h}, nil
}

// do sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil). Every failure comes back as *diagnostic.CollaboratorError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	u := c.base.ResolveReference(&url.URL{Path: path})
	return c.doURL(ctx, op, method, u, body, out)
}

func (c *Client) doURL(ctx context.Context, op, method string, u *url.URL, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &diagnostic.CollaboratorError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		ce := &diagnostic.CollaboratorError{Op: op, Status: res.StatusCode}
		var eb wire.ErrorBody
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		if json.Unmarshal(raw, &eb) == nil {
			ce.Message = eb.Message
		}
		if res.StatusCode == http.StatusNotFound {
			ce.Err = diagnostic.ErrNotFound
		}
		return ce
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		b, err := io.ReadAll(res.Body)
		if err != nil {
			return &diagnostic.CollaboratorError{Op: op, Err: err}
		}
		*raw = b
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &diagnostic.CollaboratorError{Op: op, Status: res.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (c *Client) CreateTest(ctx context.Context, p wire.TestPayload) (wire.TestRecord, error) {
	var rec wire.TestRecord
	err := c.do(ctx, "create test", http.MethodPost, "testes_diagnosticos", p, &rec)
	return rec, err
}

func (c *Client) UpdateTest(ctx context.Context, id string, p wire.TestPayload) (wire.TestRecord, error) {
	var rec wire.TestRecord
	err := c.do(ctx, "update test", http.MethodPut, "testes_diagnosticos/"+id, p, &rec)
	return rec, err
}

func (c *Client) GetTest(ctx context.Context, id string) (wire.TestRecord, error) {
	var rec wire.TestRecord
	err := c.do(ctx, "load test", http.MethodGet, "testes_diagnosticos/"+id, nil, &rec)
	return rec, err
}

func (c *Client) ListTests(ctx context.Context, classID string) ([]wire.TestRecord, error) {
	u := c.base.ResolveReference(&url.URL{Path: "testes_diagnosticos"})
	if classID != "" {
		u.RawQuery = url.Values{"classe_id": {classID}}.Encode()
	}
	var lr wire.ListResponse
	if err := c.doURL(ctx, "list tests", http.MethodGet, u, nil, &lr); err != nil {
		return nil, err
	}
	return lr.Data, nil
}

// SubmitAnswers posts the whole answer set in one request.
func (c *Client) SubmitAnswers(ctx context.Context, req wire.SubmitRequest) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, "submit answers", http.MethodPost, "responder", req, &raw)
	return raw, err
}

func (c *Client) FetchResult(ctx context.Context, testID, studentID string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, "fetch result", http.MethodGet,
		"resultados/"+testID+"/"+studentID, nil, &raw)
	return raw, err
}

func (c *Client) Login(ctx context.Context, email, password string) (wire.LoginResponse, error) {
	var lr wire.LoginResponse
	err := c.do(ctx, "log in", http.MethodPost, "login", wire.LoginRequest{Email: email, Password: password}, &lr)
	if err == nil && lr.AccessToken == "" {
		err = &diagnostic.CollaboratorError{Op: "log in", Err: errors.New("empty access token")}
	}
	return lr, err
}

// LoginStudent signs a student in with their sign-in code.
func (c *Client) LoginStudent(ctx context.Context, codigo string) (wire.StudentLoginResponse, error) {
	var lr wire.StudentLoginResponse
	err := c.do(ctx, "log in", http.MethodPost, "login-aluno-codigo", wire.StudentLoginRequest{Codigo: codigo}, &lr)
	if err == nil && lr.AccessToken == "" {
		err = &diagnostic.CollaboratorError{Op: "log in", Err: errors.New("empty access token")}
	}
	return lr, err
}

func (c *Client) Me(ctx context.Context) (wire.Me, error) {
	var body wire.MeResponse
	err := c.do(ctx, "load identity", http.MethodGet, "me", nil, &body)
	return body.User, err
}

func (c *Client) Classes(ctx context.Context) ([]wire.Class, error) {
	return getList[wire.Class](ctx, c, "load classes", c.base.ResolveReference(&url.URL{Path: "classes"}))
}

func (c *Client) BaseDisciplines(ctx context.Context) ([]wire.BaseDiscipline, error) {
	return getList[wire.BaseDiscipline](ctx, c, "load disciplines", c.base.ResolveReference(&url.URL{Path: "disciplinas-base"}))
}

// Disciplines lists the disciplines of classID, or all of them when it is
// empty.
func (c *Client) Disciplines(ctx context.Context, classID string) ([]wire.Discipline, error) {
	u := c.base.ResolveReference(&url.URL{Path: "disciplinas"})
	if classID != "" {
		u.RawQuery = url.Values{"classe_id": {classID}}.Encode()
	}
	return getList[wire.Discipline](ctx, c, "load disciplines", u)
}

func (c *Client) CreateClass(ctx context.Context, name string) (wire.Class, error) {
	var out wire.Class
	err := c.do(ctx, "create class", http.MethodPost, "classes", wire.Class{Name: name}, &out)
	return out, err
}

func (c *Client) CreateBaseDiscipline(ctx context.Context, nome string) (wire.BaseDiscipline, error) {
	var out wire.BaseDiscipline
	err := c.do(ctx, "create discipline", http.MethodPost, "disciplinas-base", wire.BaseDiscipline{Nome: nome}, &out)
	return out, err
}

func (c *Client) CreateDiscipline(ctx context.Context, req wire.DisciplineRequest) (wire.Discipline, error) {
	var out wire.Discipline
	err := c.do(ctx, "create discipline", http.MethodPost, "disciplinas", req, &out)
	return out, err
}

func (c *Client) EditDiscipline(ctx context.Context, id string, req wire.DisciplineRequest) (wire.Discipline, error) {
	var out wire.Discipline
	err := c.do(ctx, "edit discipline", http.MethodPut, "disciplinas/"+id, req, &out)
	return out, err
}

func getList[T any](ctx context.Context, c *Client, op string, u *url.URL) ([]T, error) {
	var raw json.RawMessage
	if err := c.doURL(ctx, op, http.MethodGet, u, nil, &raw); err != nil {
		return nil, err
	}
	out, err := wire.DecodeList[T](raw)
	if err != nil {
		return nil, &diagnostic.CollaboratorError{Op: op, Err: err}
	}
	return out, nil
}
