// Package rbd — клиент supply-search API rbd.kz, источника parsed_properties.
package rbd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"

	"go.uber.org/zap"

	"vitrina-crm/pkg/config"
)

const (
	loginPath  = "/api/auth/login"
	searchPath = "/api/supply/search"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// Ответ API при протухшей сессии — сигнал перелогиниться.
	needRecreateSession = "Need recreate session"
)

// SupplyPage — страница выдачи supply-search.
type SupplyPage struct {
	Store        []map[string]interface{} `json:"store"`
	ErrorMessage string                   `json:"errorMessage"`
}

type ClientInterface interface {
	Login(ctx context.Context) error
	FetchPage(ctx context.Context, pageNum int) (*SupplyPage, error)
}

type Client struct {
	cfg        config.RBDConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.RBDConfig, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать cookie jar: %w", err)
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
			Jar:     jar,
		},
		logger: logger,
	}, nil
}

// databox-обёртка, которую ожидает API.
func loginPayload(email, password string) map[string]interface{} {
	return map[string]interface{}{
		"type": "databox",
		"value": map[string]interface{}{
			"email":    map[string]interface{}{"type": "string", "value": email},
			"passwd":   map[string]interface{}{"type": "string", "value": password},
			"remember": map[string]interface{}{"type": "boolean", "value": true},
		},
	}
}

func searchPayload(pageNum int) map[string]interface{} {
	return map[string]interface{}{
		"type": "databox",
		"value": map[string]interface{}{
			"pageNum":       map[string]interface{}{"type": "number", "value": pageNum},
			"sortType":      map[string]interface{}{"type": "number", "value": 1},
			"viewType":      map[string]interface{}{"type": "number", "value": 3},
			"filterChanged": map[string]interface{}{"type": "boolean", "value": pageNum == 1},
		},
	}
}

// postDatabox отправляет payload как multipart-поле "data" — формат,
// который принимает бэкенд rbd.kz.
func (c *Client) postDatabox(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("не удалось сериализовать payload: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("data", string(data)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", c.cfg.BaseURL)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	return c.httpClient.Do(req)
}

func (c *Client) Login(ctx context.Context) error {
	// Первый GET устанавливает сессионные куки.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("не удалось открыть сессию rbd.kz: %w", err)
	}
	_ = resp.Body.Close()

	resp, err = c.postDatabox(ctx, loginPath, loginPayload(c.cfg.Email, c.cfg.Password))
	if err != nil {
		return fmt.Errorf("ошибка запроса логина rbd.kz: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("не удалось авторизоваться в rbd.kz: статус %d", resp.StatusCode)
	}

	c.logger.Info("авторизация в rbd.kz выполнена")
	return nil
}

// FetchPage запрашивает страницу выдачи. При протухшей сессии логинится
// заново и повторяет запрос один раз.
func (c *Client) FetchPage(ctx context.Context, pageNum int) (*SupplyPage, error) {
	page, err := c.fetchPageOnce(ctx, pageNum)
	if err != nil {
		return nil, err
	}
	if page != nil && page.ErrorMessage == needRecreateSession {
		c.logger.Warn("сессия rbd.kz протухла, перелогиниваемся")
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		return c.fetchPageOnce(ctx, pageNum)
	}
	return page, nil
}

func (c *Client) fetchPageOnce(ctx context.Context, pageNum int) (*SupplyPage, error) {
	resp, err := c.postDatabox(ctx, searchPath, searchPayload(pageNum))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса страницы %d: %w", pageNum, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("страница %d: статус %d", pageNum, resp.StatusCode)
	}

	var page SupplyPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("страница %d: не удалось разобрать ответ: %w", pageNum, err)
	}
	return &page, nil
}
