package domain

// 查询中跟踪的变量名（同时决定 SELECT 列顺序）。
const (
	VarFilm          = "film"
	VarFilmLabel     = "filmLabel"
	VarAbstract      = "abstract"
	VarReleaseDate   = "releaseDate"
	VarDirectorLabel = "directorLabel"
	VarAgeRating     = "ageRating"
	VarPoster        = "poster"
	VarRating        = "rating"
	VarTrailer       = "trailer"
	VarGenreLabel    = "genreLabel"
	VarRuntime       = "runtime"
)

// TrackedVars 按 SELECT 顺序列出全部 11 个变量。
var TrackedVars = []string{
	VarFilm,
	VarFilmLabel,
	VarAbstract,
	VarReleaseDate,
	VarDirectorLabel,
	VarAgeRating,
	VarPoster,
	VarRating,
	VarTrailer,
	VarGenreLabel,
	VarRuntime,
}

// QueryResult 是 SPARQL 1.1 JSON 结果格式的最小解码目标。
//
// 只镜像本程序读取的字段；未知字段在解码时直接忽略。
// Results 或 Results.Bindings 为 nil 表示结构缺失（由 flatten 判定为 malformed）。
type QueryResult struct {
	Head    Head       `json:"head"`
	Results *ResultSet `json:"results"`
}

type Head struct {
	Vars []string `json:"vars"`
}

type ResultSet struct {
	Bindings []Binding `json:"bindings"`
}

// Binding 是一行结果：变量名 -> 可选的值。
type Binding struct {
	Film          *Term `json:"film,omitempty"`
	FilmLabel     *Term `json:"filmLabel,omitempty"`
	Abstract      *Term `json:"abstract,omitempty"`
	ReleaseDate   *Term `json:"releaseDate,omitempty"`
	DirectorLabel *Term `json:"directorLabel,omitempty"`
	AgeRating     *Term `json:"ageRating,omitempty"`
	Poster        *Term `json:"poster,omitempty"`
	Rating        *Term `json:"rating,omitempty"`
	Trailer       *Term `json:"trailer,omitempty"`
	GenreLabel    *Term `json:"genreLabel,omitempty"`
	Runtime       *Term `json:"runtime,omitempty"`
}

// Term 是 RDF term 的 JSON 表示。
// Value 为 nil 表示该变量虽出现但没有 value 字段，按缺失处理。
type Term struct {
	Type     string  `json:"type,omitempty"`
	Value    *string `json:"value,omitempty"`
	Lang     string  `json:"xml:lang,omitempty"`
	Datatype string  `json:"datatype,omitempty"`
}

// Literal 构造一个只有 value 的 Term（测试与离线构造结果时使用）。
func Literal(v string) *Term {
	return &Term{Type: "literal", Value: &v}
}

// URI 构造一个 type=uri 的 Term。
func URI(v string) *Term {
	return &Term{Type: "uri", Value: &v}
}

// Lookup 返回 term 的值；term 缺失或没有 value 时 ok=false。
func (t *Term) Lookup() (string, bool) {
	if t == nil || t.Value == nil {
		return "", false
	}
	return *t.Value, true
}
