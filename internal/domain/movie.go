package domain

// NotAvailable 是缺失字段的占位值。
const NotAvailable = "N/A"

// Movie 是扁平化后的电影记录。
//
// 约束：
// - 11 个字段全部存在，缺失一律写 NotAvailable（不省略、不写 null）
// - 字段顺序即 JSON 输出顺序，不要调整
type Movie struct {
	Film     string `json:"Film"`
	Title    string `json:"Title"`
	Plot     string `json:"Plot"`
	Released string `json:"Released"`
	Director string `json:"Director"`
	Rated    string `json:"Rated"`
	Poster   string `json:"Poster"`
	Ratings  string `json:"Ratings"`
	Trailer  string `json:"Trailer"`
	Genre    string `json:"Genre"`
	Runtime  string `json:"Runtime"`
}
