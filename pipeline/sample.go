package pipeline

import (
	"time"

	"github.com/vrclife/catalogd/models"
)

// SampleItems returns the canned dataset used by dry runs. It covers every
// downstream branch: an adult-flagged item, each taste family, and each item
// type.
func SampleItems() []*models.Item {
	now := time.Now().UTC()
	return []*models.Item{
		{
			ID:           "booth-1234567",
			Name:         "【VRChat向け】サイバーパンクジャケット",
			Price:        2500,
			ShopName:     "CyberWear Studio",
			BoothURL:     "https://booth.pm/ja/items/1234567",
			ThumbnailURL: "https://wsrv.nl/?url=https://booth.pximg.net/sample1.jpg&output=webp",
			Likes:        350,
			Description:  "VRChat対応のサイバーパンク風ジャケット。対応アバター：舞夜、桔梗、セレスティア。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-2345678",
			Name:         "和風モダンドレス for 舞夜",
			Price:        3000,
			ShopName:     "WaStyle",
			BoothURL:     "https://booth.pm/ja/items/2345678",
			ThumbnailURL: "https://booth.pximg.net/sample2.jpg",
			Likes:        200,
			Description:  "舞夜対応の和風モダンドレスです。改変歓迎。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-3456789",
			Name:         "ストリートスニーカー VRChat",
			Price:        1500,
			ShopName:     "VR Kicks",
			BoothURL:     "https://booth.pm/ja/items/3456789",
			ThumbnailURL: "https://booth.pximg.net/sample3.jpg",
			Likes:        150,
			Description:  "ストリート系スニーカー。ボーン対応済み。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-4567890",
			Name:         "量産型リボンヘッドドレス",
			Price:        800,
			ShopName:     "RyouSan Lab",
			BoothURL:     "https://booth.pm/ja/items/4567890",
			ThumbnailURL: "https://booth.pximg.net/sample4.jpg",
			Likes:        500,
			Description:  "量産型コーデにぴったりのリボンヘッドドレス。対応アバター多数。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-5678901",
			Name:         "地雷系チョーカーセット",
			Price:        600,
			ShopName:     "JiraiAccessory",
			BoothURL:     "https://booth.pm/ja/items/5678901",
			ThumbnailURL: "https://booth.pximg.net/sample5.jpg",
			Likes:        180,
			Description:  "地雷系コーデに合うチョーカー5種セット。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-6789012",
			Name:         "ファンタジー騎士アーマー【男女兼用】",
			Price:        4000,
			ShopName:     "Fantasy Forge",
			BoothURL:     "https://booth.pm/ja/items/6789012",
			ThumbnailURL: "https://booth.pximg.net/sample6.jpg",
			Likes:        420,
			Description:  "ファンタジー風騎士の鎧。PBR対応、Quest対応済み。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-7890123",
			Name:         "キッズサイズ ふわもこパジャマ",
			Price:        1200,
			ShopName:     "Small World",
			BoothURL:     "https://booth.pm/ja/items/7890123",
			ThumbnailURL: "https://booth.pximg.net/sample7.jpg",
			Likes:        130,
			Description:  "スモールアバター向けふわもこパジャマ。マヌカ、ルシナ対応。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-8901234",
			Name:         "R-18 セクシーランジェリー",
			Price:        1000,
			ShopName:     "AdultVRC",
			BoothURL:     "https://booth.pm/ja/items/8901234",
			ThumbnailURL: "https://booth.pximg.net/sample8.jpg",
			Likes:        300,
			Adult:        true,
			Description:  "成人向けランジェリーセット。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-9012345",
			Name:         "ゴシックロリータドレス",
			Price:        3500,
			ShopName:     "GothicVRC",
			BoothURL:     "https://booth.pm/ja/items/9012345",
			ThumbnailURL: "https://booth.pximg.net/sample9.jpg",
			Likes:        280,
			Description:  "ゴシックロリータ風ドレス。桔梗・セレスティア対応。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-0123456",
			Name:         "VRChatアバターテクスチャ改変素材集",
			Price:        500,
			ShopName:     "TexMaster",
			BoothURL:     "https://booth.pm/ja/items/0123456",
			ThumbnailURL: "https://booth.pximg.net/sample10.jpg",
			Likes:        90,
			Description:  "テクスチャ改変用素材集。肌・服・目のテクスチャが入っています。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-1111111",
			Name:         "ネオン系グローアクセサリーパック",
			Price:        1800,
			ShopName:     "NeonVRC",
			BoothURL:     "https://booth.pm/ja/items/1111111",
			ThumbnailURL: "https://booth.pximg.net/sample11.jpg",
			Likes:        220,
			Description:  "光るネオン系アクセサリー詰め合わせ。サイバーパンクコーデに。",
			FetchedAt:    now,
		},
		{
			ID:           "booth-2222222",
			Name:         "カジュアルパーカー＆デニムセット",
			Price:        2000,
			ShopName:     "CasualVRC",
			BoothURL:     "https://booth.pm/ja/items/2222222",
			ThumbnailURL: "https://booth.pximg.net/sample12.jpg",
			Likes:        310,
			Description:  "カジュアルなパーカーとデニムパンツのセット。男性アバター対応。",
			FetchedAt:    now,
		},
	}
}
