// Package classify assigns category, taste, and type labels to items from
// free text using ordered keyword-pattern tables. It is pure: no I/O, no
// mutable globals; a Ruleset is compiled once and injected.
package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule is one keyword pattern. Unless is a guard: the rule does not match
// when the guard also matches (RE2 has no negative lookahead).
type Rule struct {
	Pattern string `yaml:"pattern"`
	Unless  string `yaml:"unless,omitempty"`

	re       *regexp.Regexp
	unlessRe *regexp.Regexp
}

// Group maps one label to its ordered patterns. The first matching pattern
// short-circuits further checks for this label only.
type Group struct {
	Label string `yaml:"label"`
	Rules []Rule `yaml:"rules"`
}

// Ruleset is the classifier's full, immutable configuration. Declaration
// order matters for Categories and Types (first matching label wins); for
// Tastes matches are additive and order does not affect the result set.
type Ruleset struct {
	Categories []Group `yaml:"categories"`
	Tastes     []Group `yaml:"tastes"`
	Types      []Group `yaml:"types"`

	// Vocabulary is the controlled category vocabulary used to normalize
	// manual overrides. "ALL" expands to the whole vocabulary.
	Vocabulary []string `yaml:"vocabulary"`

	DisplayTypes map[string]string `yaml:"displayTypes"`

	DefaultCategory string `yaml:"defaultCategory"`
	DefaultTaste    string `yaml:"defaultTaste"`
	DefaultType     string `yaml:"defaultType"`
}

// Compile builds the case-insensitive matchers. Must be called once before
// Classify; Load and DefaultRules return compiled rulesets.
func (rs *Ruleset) Compile() error {
	for _, groups := range [][]Group{rs.Categories, rs.Tastes, rs.Types} {
		for gi := range groups {
			for ri := range groups[gi].Rules {
				rule := &groups[gi].Rules[ri]
				re, err := regexp.Compile("(?i)" + rule.Pattern)
				if err != nil {
					return fmt.Errorf("compile pattern %q for %s: %w", rule.Pattern, groups[gi].Label, err)
				}
				rule.re = re
				if rule.Unless != "" {
					unlessRe, err := regexp.Compile("(?i)" + rule.Unless)
					if err != nil {
						return fmt.Errorf("compile guard %q for %s: %w", rule.Unless, groups[gi].Label, err)
					}
					rule.unlessRe = unlessRe
				}
			}
		}
	}
	return nil
}

// Load reads a ruleset from a YAML file and compiles it.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rs := &Ruleset{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if err := rs.validate(); err != nil {
		return nil, err
	}
	if err := rs.Compile(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (rs *Ruleset) validate() error {
	if len(rs.Categories) == 0 || len(rs.Tastes) == 0 || len(rs.Types) == 0 {
		return fmt.Errorf("rules file must define categories, tastes, and types")
	}
	if rs.DefaultCategory == "" || rs.DefaultTaste == "" || rs.DefaultType == "" {
		return fmt.Errorf("rules file must define all three defaults")
	}
	// "ALL" overrides expand to the vocabulary; an empty one would expand
	// to nothing.
	if len(rs.Vocabulary) == 0 {
		return fmt.Errorf("rules file must define a category vocabulary")
	}
	return nil
}

func patterns(ps ...string) []Rule {
	rules := make([]Rule, len(ps))
	for i, p := range ps {
		rules[i] = Rule{Pattern: p}
	}
	return rules
}

// DefaultRules returns the built-in compiled ruleset for the VRChat fashion
// catalog. The womens default reflects the source population skew, not a
// universal default.
func DefaultRules() *Ruleset {
	rs := &Ruleset{
		Categories: []Group{
			{Label: "mens", Rules: patterns(
				`メンズ`, `男性`, `男の子`, `ボーイ`, `boy`,
				`男性向け`, `男子`, `紳士`,
				// avatar names observed on mens-leaning listings
				`リーファ`, `ゼン`, `ボーイ系`, `男性アバター`,
			)},
			{Label: "womens", Rules: patterns(
				`レディース`, `女性`, `女の子`, `ガール`, `girl`,
				`女性向け`, `女子`, `Lady`,
				`舞夜`, `まいや`, `桔梗`, `ききょう`, `セレスティア`,
				`マヌカ`, `リメス`, `イメリス`, `薄荷`, `はっか`,
				`ルシナ`, `ヴェール`, `サフィー`, `あまなつ`,
				`京狐`, `萌`, `シフォン`, `チセ`,
			)},
			{Label: "kids", Rules: patterns(
				`キッズ`, `子供`, `こども`, `スモール`,
				`ミニ`, `ちび`, `小さい`,
				`kids`, `small`,
				`マヌカ`, `ルシナ`, `ラスク`, `ぽこ`,
				`しなの`, `ここあ`, `フィー`,
			)},
		},
		Tastes: []Group{
			{Label: "cyber", Rules: patterns(
				`サイバー`, `パンク`, `ネオン`, `グロー`, `光る`,
				`LED`, `ホログラム`, `メカ`, `ロボ`,
				`cyber`, `punk`, `neon`, `glow`, `mecha`,
				`SF`, `近未来`, `電脳`,
			)},
			{Label: "street", Rules: append(patterns(
				`ストリート`, `パーカー`, `スニーカー`, `デニム`,
				`ヒップホップ`, `グラフィティ`, `スケート`,
				`street`, `hoodie`, `sneaker`,
			), Rule{Pattern: `カジュアル`, Unless: `和`})},
			{Label: "wa-modern", Rules: patterns(
				`和風`, `着物`, `和服`, `和モダン`, `和装`,
				`袴`, `浴衣`, `振袖`, `羽織`,
				`japanese`, `kimono`, `wa-`,
			)},
			{Label: "ryousangata", Rules: patterns(
				`量産型`, `量産`, `りょうさん`,
				`ガーリー`, `リボン`, `フリル`,
				`パール`, `ピンク系`,
			)},
			{Label: "jirai", Rules: append(patterns(
				`地雷`, `じらい`, `病み`,
				`黒×ピンク`,
			), Rule{Pattern: `ダーク`, Unless: `ファンタジー`}, Rule{Pattern: `メンヘラ`})},
			{Label: "fantasy", Rules: patterns(
				`ファンタジー`, `騎士`, `魔法`, `ドラゴン`,
				`エルフ`, `魔女`, `剣`, `鎧`,
				`fantasy`, `knight`, `magic`, `RPG`,
				`中世`, `異世界`,
			)},
			{Label: "casual", Rules: patterns(
				`カジュアル`, `デイリー`, `普段着`,
				`Tシャツ`, `ジーンズ`, `シンプル`,
				`casual`, `daily`,
			)},
			{Label: "gothic", Rules: patterns(
				`ゴシック`, `ゴスロリ`, `ロリータ`,
				`ヴィクトリアン`, `ダークエレガント`,
				`gothic`, `lolita`, `goth`,
			)},
			{Label: "pop", Rules: patterns(
				`ポップ`, `カラフル`, `原宿`,
				`ゆめかわ`, `夢可愛い`, `パステル`,
				`デコラ`, `Kawaii`,
				`pop`, `colorful`,
			)},
		},
		Types: []Group{
			{Label: "avatar", Rules: patterns(
				`アバター`, `avatar`, `キャラクター`, `3Dモデル`,
				`character`, `ボディ`, `素体`,
			)},
			{Label: "costume", Rules: patterns(
				`衣装`, `服`, `ドレス`, `ジャケット`, `パンツ`,
				`スカート`, `パーカー`, `コート`, `ワンピース`,
				`セーター`, `シャツ`, `ブラウス`, `水着`,
				`costume`, `outfit`, `clothing`, `wear`,
				`デニム`, `ニット`, `カーディガン`,
			)},
			{Label: "accessory", Rules: patterns(
				`アクセサリー`, `ヘッドドレス`, `チョーカー`, `イヤリング`,
				`ピアス`, `ネックレス`, `ブレスレット`, `リング`,
				`帽子`, `メガネ`, `サングラス`, `バッグ`,
				`靴`, `ブーツ`, `スニーカー`, `ハイヒール`,
				`accessory`, `hair`, `hat`, `glasses`,
				`リボン`, `翼`, `ウィング`, `角`,
			)},
			{Label: "texture", Rules: patterns(
				`テクスチャ`, `マテリアル`, `素材`, `改変素材`,
				`texture`, `material`, `shader`,
				`UV`, `PSD`,
			)},
			{Label: "tool", Rules: patterns(
				`ツール`, `ギミック`, `システム`, `スクリプト`,
				`tool`, `system`, `script`, `sdk`, `prefab`,
				`導入`, `設定`, `OSC`, `ワールド固定`,
			)},
			{Label: "pose", Rules: patterns(
				`ポーズ`, `アニメーション`, `モーション`, `ダンス`,
				`pose`, `animation`, `motion`, `dance`,
				`afk`, `emote`, `エモート`,
			)},
		},
		Vocabulary: []string{"mens", "womens", "kids"},
		DisplayTypes: map[string]string{
			"avatar":    "アバター",
			"costume":   "衣装",
			"accessory": "アクセサリー",
			"texture":   "テクスチャ",
			"tool":      "ツール",
			"pose":      "ポーズ",
		},
		DefaultCategory: "womens",
		DefaultTaste:    "casual",
		DefaultType:     "costume",
	}
	if err := rs.Compile(); err != nil {
		// Built-in patterns are fixed; a compile failure is a programming error.
		panic(err)
	}
	return rs
}
