// Package sparql 负责构造电影查询、向 SPARQL endpoint 发起请求并解码 JSON 结果。
package sparql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/wdfilms/internal/domain"
)

const (
	acceptJSON = "application/sparql-results+json"

	// 结果上限 100 行时响应通常只有几百 KB；超出上限视为异常响应。
	maxResponseBytes = 64 << 20
	maxErrBodyBytes  = 64 << 10
)

// Client 执行一次 SPARQL SELECT 查询。
//
// 约束：不缓存、不重试、不限速；一次 Execute 只发一个请求。
type Client struct {
	HTTP  *http.Client
	Query FilmQuery
}

// Execute 向 endpointURL 发送 Query，并把响应解码为 domain.QueryResult。
// 所有失败都返回 Kind=query_failed 的 *domain.Error。
func (c Client) Execute(ctx context.Context, endpointURL string) (*domain.QueryResult, error) {
	if c.HTTP == nil {
		return nil, queryErr(endpointURL, errors.New("http client 不能为空"))
	}

	req, err := newRequest(ctx, endpointURL, c.Query.String())
	if err != nil {
		return nil, queryErr(endpointURL, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, queryErr(endpointURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyBytes))
		return nil, queryErr(endpointURL, &HTTPStatusError{
			URL:        endpointURL,
			StatusCode: resp.StatusCode,
			Message:    summarizeErrorBody(resp.Header.Get("Content-Type"), b),
		})
	}

	qr, err := DecodeResult(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, queryErr(endpointURL, err)
	}
	return qr, nil
}

// DecodeResult 宽松解码 SPARQL JSON 结果（未知字段忽略）。
//
// 只检查 JSON 语法与类型；results/bindings 是否存在由 flatten 判定。
func DecodeResult(r io.Reader) (*domain.QueryResult, error) {
	var qr domain.QueryResult
	dec := json.NewDecoder(r)
	if err := dec.Decode(&qr); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("响应体为空")
		}
		return nil, fmt.Errorf("无法解析结果 JSON：%w", err)
	}
	return &qr, nil
}

func newRequest(ctx context.Context, endpointURL, query string) (*http.Request, error) {
	u, err := url.Parse(strings.TrimSpace(endpointURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint 必须是 http/https：%q", endpointURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint 缺少 host：%q", endpointURL)
	}

	// 保留 endpoint 自带的 query 参数，只追加 query/format。
	q := u.Query()
	q.Set("query", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", acceptJSON)
	return req, nil
}

func queryErr(endpointURL string, err error) error {
	return &domain.Error{Kind: domain.KindQuery, Op: endpointURL, Err: err}
}
