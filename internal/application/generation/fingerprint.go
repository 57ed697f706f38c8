package generation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"prism-docs-api/internal/domain/entity"
)

// fingerprintPayload 参与指纹计算的规范化请求
// 字段名即 JSON 键，序列化时按键排序，保证跨进程稳定。
type fingerprintPayload struct {
	OutputKind  string               `json:"output_kind"`
	Provider    string               `json:"provider"`
	Model       string               `json:"model"`
	ImageModel  string               `json:"image_model"`
	Preferences canonicalPreferences `json:"preferences"`
	Sources     []canonicalSource    `json:"sources"`
}

type canonicalPreferences struct {
	Audience         string  `json:"audience"`
	ImageStyle       string  `json:"image_style"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	MaxSlides        int     `json:"max_slides"`
	MaxSummaryPoints int     `json:"max_summary_points"`
}

type canonicalSource struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// ComputeFingerprint 计算请求指纹：对规范化请求做 sha256。
// 文本源按内容哈希、URL 源按规整地址、文件源按内容摘要参与计算；
// 源顺序不影响结果；分组（category）只影响提示词拼装，不参与指纹。
func ComputeFingerprint(req *entity.GenerationRequest) string {
	sources := make([]canonicalSource, 0, len(req.Sources))
	for _, s := range req.Sources {
		key := s.CanonicalKey()
		if key == "" {
			continue
		}
		sources = append(sources, canonicalSource{Type: string(s.Type), Key: key})
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Type != sources[j].Type {
			return sources[i].Type < sources[j].Type
		}
		return sources[i].Key < sources[j].Key
	})

	payload := fingerprintPayload{
		OutputKind: string(req.OutputKind),
		Provider:   strings.TrimSpace(req.Provider),
		Model:      strings.TrimSpace(req.Model),
		ImageModel: strings.TrimSpace(req.ImageModel),
		Preferences: canonicalPreferences{
			Audience:         strings.TrimSpace(req.Preferences.Audience),
			ImageStyle:       strings.TrimSpace(req.Preferences.ImageStyle),
			Temperature:      req.Preferences.Temperature,
			MaxTokens:        req.Preferences.MaxTokens,
			MaxSlides:        req.Preferences.MaxSlides,
			MaxSummaryPoints: req.Preferences.MaxSummaryPoints,
		},
		Sources: sources,
	}

	// encoding/json 对 struct 按字段声明序列化，结构固定即规范形
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
