package run

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/wdfilms/internal/config"
	"github.com/John-Robertt/wdfilms/internal/domain"
	"github.com/John-Robertt/wdfilms/internal/flatten"
	"github.com/John-Robertt/wdfilms/internal/infra/httpx"
	"github.com/John-Robertt/wdfilms/internal/persist"
	"github.com/John-Robertt/wdfilms/internal/sparql"
)

// Querier 执行查询并返回解码后的结果；*sparql.Client 的值类型即满足该接口。
type Querier interface {
	Execute(ctx context.Context, endpointURL string) (*domain.QueryResult, error)
}

// Deps 是 Execute 的可替换依赖；零值表示使用默认实现。
type Deps struct {
	Querier Querier
	Now     func() time.Time
	RunID   func() string
}

// Execute 顺序执行 query -> flatten -> persist。
//
// 任一阶段失败立即中止，原样返回该阶段的 *domain.Error（不做恢复、不做重试）。
// 返回的 RunReport 无论成功失败都已 Finalize。
func Execute(ctx context.Context, eff config.EffectiveConfig, deps Deps, obs Observer) (domain.RunReport, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.RunID
	if newID == nil {
		newID = NewRunID
	}

	rr := domain.RunReport{
		RunID:     newID(),
		Source:    eff.Endpoint,
		Output:    eff.Output,
		StartedAt: now(),
	}
	if eff.Input != "" {
		rr.Source = eff.Input
	}
	if obs != nil {
		obs.OnStart(rr.RunID, eff)
	}

	err := execute(ctx, eff, deps, obs, &rr)
	rr.FinishedAt = now()
	rr.Finalize(err)
	return rr, err
}

func execute(ctx context.Context, eff config.EffectiveConfig, deps Deps, obs Observer, rr *domain.RunReport) error {
	started := time.Now()
	qr, err := load(ctx, eff, deps)
	if err != nil {
		return err
	}
	if qr.Results != nil {
		rr.Bindings = len(qr.Results.Bindings)
	}
	phaseDone(obs, PhaseQuery, map[string]any{
		"source":   rr.Source,
		"bindings": rr.Bindings,
	}, time.Since(started))

	started = time.Now()
	movies, err := flatten.Flatten(qr)
	if err != nil {
		return err
	}
	rr.Records = len(movies)
	phaseDone(obs, PhaseFlatten, map[string]any{
		"records": rr.Records,
	}, time.Since(started))

	started = time.Now()
	if err := persist.Persist(movies, eff.Output); err != nil {
		return err
	}
	phaseDone(obs, PhasePersist, map[string]any{
		"path":    eff.Output,
		"records": rr.Records,
	}, time.Since(started))
	return nil
}

// load 取得查询结果：--input 时读本地文件，否则请求 endpoint。
func load(ctx context.Context, eff config.EffectiveConfig, deps Deps) (*domain.QueryResult, error) {
	if eff.Input != "" {
		return readInput(eff.Input)
	}

	q := deps.Querier
	if q == nil {
		hc, err := httpx.NewQueryClient(httpx.Options{
			ProxyURL:  eff.ProxyURL,
			UserAgent: eff.UserAgent,
			Timeout:   eff.Timeout,
		})
		if err != nil {
			return nil, &domain.Error{Kind: domain.KindQuery, Op: eff.Endpoint, Err: fmt.Errorf("构造 http client 失败：%w", err)}
		}
		q = sparql.Client{HTTP: hc, Query: eff.FilmQuery()}
	}
	return q.Execute(ctx, eff.Endpoint)
}

func readInput(path string) (*domain.QueryResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindIO, Op: path, Err: err}
	}
	defer f.Close()

	qr, err := sparql.DecodeResult(f)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindQuery, Op: path, Err: err}
	}
	return qr, nil
}

func phaseDone(obs Observer, name string, fields map[string]any, dur time.Duration) {
	if obs != nil {
		obs.OnPhaseDone(name, fields, dur)
	}
}

// NewRunID 生成按时间有序的 UUIDv7；随机源不可用时退化为 v4。
func NewRunID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
