package models

type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
)

// TierLevel - порог уровня и привилегии, которые он открывает
type TierLevel struct {
	Tier      Tier     `json:"tier"`
	MinPoints int      `json:"min_points"`
	Benefits  []string `json:"benefits"`
}

// Tiers упорядочены по возрастанию порога
var Tiers = []TierLevel{
	{Tier: TierBronze, MinPoints: 0, Benefits: []string{"Basic reporting tools", "Community access"}},
	{Tier: TierSilver, MinPoints: 500, Benefits: []string{"Advanced analytics", "Priority support", "Monthly reports"}},
	{Tier: TierGold, MinPoints: 1500, Benefits: []string{"Expert consultation", "Data export", "Training materials"}},
	{Tier: TierPlatinum, MinPoints: 3000, Benefits: []string{"Direct hotline", "Policy influence", "Research collaboration"}},
	{Tier: TierDiamond, MinPoints: 5000, Benefits: []string{"VIP status", "Conference invitations", "Exclusive network"}},
}

// TierFor возвращает уровень с наибольшим порогом, не превышающим points
func TierFor(points int) Tier {
	tier := TierBronze
	for _, level := range Tiers {
		if points < level.MinPoints {
			break
		}
		tier = level.Tier
	}
	return tier
}
