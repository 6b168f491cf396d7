// Package flatten 把 SPARQL 结果行展开为固定字段的 Movie 记录。
package flatten

import (
	"errors"

	"github.com/John-Robertt/wdfilms/internal/domain"
)

var errNoBindings = errors.New("结果缺少 results.bindings")

// Flatten 按输入顺序把每个 binding 转为一条 domain.Movie。
//
// 约束：
// - 纯函数：相同输入 => 相同输出
// - 值原样透传，不做 trim/大小写等处理；缺失字段写 domain.NotAvailable
// - 只有顶层 bindings 结构缺失才算错误；空列表返回空切片（非 nil）
func Flatten(qr *domain.QueryResult) ([]domain.Movie, error) {
	if qr == nil || qr.Results == nil || qr.Results.Bindings == nil {
		return nil, &domain.Error{Kind: domain.KindMalformed, Err: errNoBindings}
	}

	out := make([]domain.Movie, 0, len(qr.Results.Bindings))
	for i := range qr.Results.Bindings {
		out = append(out, Record(qr.Results.Bindings[i]))
	}
	return out, nil
}

// Record 把单个 binding 转为 Movie（字段之间互相独立，部分缺失是常态）。
func Record(b domain.Binding) domain.Movie {
	return domain.Movie{
		Film:     valueOr(b.Film),
		Title:    valueOr(b.FilmLabel),
		Plot:     valueOr(b.Abstract),
		Released: valueOr(b.ReleaseDate),
		Director: valueOr(b.DirectorLabel),
		Rated:    valueOr(b.AgeRating),
		Poster:   valueOr(b.Poster),
		Ratings:  valueOr(b.Rating),
		Trailer:  valueOr(b.Trailer),
		Genre:    valueOr(b.GenreLabel),
		Runtime:  valueOr(b.Runtime),
	}
}

func valueOr(t *domain.Term) string {
	if v, ok := t.Lookup(); ok {
		return v
	}
	return domain.NotAvailable
}
