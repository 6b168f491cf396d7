package sparql

import (
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/wdfilms/internal/domain"
)

const (
	DefaultEndpoint = "https://query.wikidata.org/sparql"
	DefaultLimit    = 100

	// AutoLanguage 是 wikibase:label 服务的占位符，由服务端替换为请求方语言。
	AutoLanguage = "[AUTO_LANGUAGE]"
)

// DefaultCutoff 是 releaseDate 过滤的下界（含）。
var DefaultCutoff = time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultLanguages 是 label 服务的语言回退链。
var DefaultLanguages = []string{AutoLanguage, "en"}

// FilmQuery 描述固定的电影查询；只有过滤下界、条数上限和 label 语言可调。
type FilmQuery struct {
	Cutoff    time.Time
	Limit     int
	Languages []string
}

// DefaultFilmQuery 返回与默认行为一致的查询参数。
func DefaultFilmQuery() FilmQuery {
	return FilmQuery{
		Cutoff:    DefaultCutoff,
		Limit:     DefaultLimit,
		Languages: append([]string(nil), DefaultLanguages...),
	}
}

// String 渲染查询文本。零值字段回退到默认值。
func (q FilmQuery) String() string {
	cutoff := q.Cutoff
	if cutoff.IsZero() {
		cutoff = DefaultCutoff
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	langs := q.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}

	vars := make([]string, 0, len(domain.TrackedVars))
	for _, v := range domain.TrackedVars {
		vars = append(vars, "?"+v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s\n", strings.Join(vars, " "))
	b.WriteString("WHERE {\n")
	b.WriteString("  ?film wdt:P31 wd:Q11424.\n")
	b.WriteString("  ?film wdt:P1476 ?filmLabel.\n")
	b.WriteString("  OPTIONAL { ?film schema:description ?abstract. FILTER(LANG(?abstract) = \"en\") }\n")
	b.WriteString("  OPTIONAL { ?film wdt:P577 ?releaseDate. }\n")
	b.WriteString("  OPTIONAL { ?film wdt:P57 ?director. }\n")
	b.WriteString("  OPTIONAL { ?film wdt:P5646 ?ageRating. }\n")
	b.WriteString("  OPTIONAL { ?film wdt:P154 ?poster. }\n")
	b.WriteString("  OPTIONAL { ?film wdt:P444 ?rating. }\n")
	b.WriteString("  OPTIONAL { ?film wdt:P1651 ?trailer. }\n")
	b.WriteString("  OPTIONAL { ?film wdt:P136 ?genre. }\n")
	b.WriteString("  OPTIONAL { ?film wdt:P2047 ?runtime. }\n")
	fmt.Fprintf(&b, "  FILTER(?releaseDate >= %q^^xsd:dateTime)\n", cutoff.UTC().Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(&b, "  SERVICE wikibase:label { bd:serviceParam wikibase:language %q. }\n", strings.Join(langs, ","))
	b.WriteString("}\n")
	fmt.Fprintf(&b, "LIMIT %d\n", limit)
	return b.String()
}
