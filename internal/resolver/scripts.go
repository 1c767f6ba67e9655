package resolver

import (
	"fmt"
	"heist-bot/internal/narrative"
)

// script carries what a narrative needs to fill in its lines.
type script struct {
	Robber      Party
	Target      Party
	RobberDelta int64
	TargetDelta int64
}

func (s script) robberLoss() string { return narrative.Money(-s.RobberDelta) }
func (s script) targetLoss() string { return narrative.Money(-s.TargetDelta) }
func (s script) take() string { return narrative.Money(s.RobberDelta) }

type scriptFunc func(s script) []string

var mutualScripts = map[Variant][]scriptFunc{
	Major: {
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 You try to rob %s, but they pull out their piece too!", s.Target.Mention),
				fmt.Sprintf("💥 **BANG!** %s fires first but misses!", s.Robber.Name),
				fmt.Sprintf("💢 %s gets hit! (-%s)", s.Robber.Name, s.robberLoss()),
				fmt.Sprintf("💥 Your bullet grazes %s! (-%s)", s.Target.Name, s.targetLoss()),
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 %s was already strapped. **BANG! BANG!** Bullets fly everywhere!", s.Target.Mention),
				fmt.Sprintf("💢 You both get caught in the crossfire! (-%s)", s.robberLoss()),
				fmt.Sprintf("🚓 Sirens in the distance send you both running! (-%s)", s.targetLoss()),
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 %s draws faster than expected!", s.Target.Mention),
				fmt.Sprintf("💢 You trade shots in the street. Blood on both sides! (-%s) (-%s)", s.robberLoss(), s.targetLoss()),
			}
		},
	},
	Minor: {
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 You pull your pistol on %s, but they draw theirs too!", s.Target.Mention),
				"😠 \"Drop it!\" you both shout at the same time!",
				fmt.Sprintf("💥 %s takes a graze! (-%s)", s.Robber.Name, s.robberLoss()),
				fmt.Sprintf("💢 %s gets hit too! (-%s)", s.Target.Name, s.targetLoss()),
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 Two plocks drawn in a standoff with %s!", s.Target.Mention),
				fmt.Sprintf("😠 Shots ring out in the panic! (-%s)", s.robberLoss()),
				fmt.Sprintf("💢 Both of you are hit! (-%s)", s.targetLoss()),
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 Your plock and %s's are locked on each other!", s.Target.Name),
				"💥 Fingers twitch and bullets fly!",
				fmt.Sprintf("💢 You both take hits! (-%s) (-%s)", s.robberLoss(), s.targetLoss()),
				"🚓 A police siren sends you both running!",
			}
		},
	},
}

var luckyEscapeScripts = []func(s script, lucky Participant) []string{
	func(s script, lucky Participant) []string {
		winner, loser, gain, loss := s.Robber, s.Target, s.RobberDelta, s.TargetDelta
		if lucky == Target {
			winner, loser, gain, loss = s.Target, s.Robber, s.TargetDelta, s.RobberDelta
		}
		return []string{
			fmt.Sprintf("🔫 Guns come out on both sides between %s and %s!", s.Robber.Mention, s.Target.Mention),
			fmt.Sprintf("💢 %s is hit and drops their wallet! (-%s)", loser.Name, narrative.Money(-loss)),
			fmt.Sprintf("🍀 %s scoops it up and vanishes into the night! (+%s)", winner.Name, narrative.Money(gain)),
		}
	},
	func(s script, lucky Participant) []string {
		winner, loser, gain, loss := s.Robber, s.Target, s.RobberDelta, s.TargetDelta
		if lucky == Target {
			winner, loser, gain, loss = s.Target, s.Robber, s.TargetDelta, s.RobberDelta
		}
		return []string{
			fmt.Sprintf("🔫 You try to rob %s and the street erupts!", s.Target.Mention),
			fmt.Sprintf("💥 A stray round catches %s! (-%s)", loser.Name, narrative.Money(-loss)),
			fmt.Sprintf("🍀 Somehow %s walks away richer! (+%s)", winner.Name, narrative.Money(gain)),
		}
	},
}

var defendedScripts = map[Variant][]scriptFunc{
	Major: {
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 You try to rob %s, but wait... what's that they're reaching for?", s.Target.Mention),
				fmt.Sprintf("💥 **BOOM!** %s pulls out a shotgun!", s.Target.Name),
				fmt.Sprintf("💢 The blast catches you! (-%s)", s.robberLoss()),
				"🩸 You escape, badly wounded!",
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("💥 %s reveals a sawed-off shotgun!", s.Target.Mention),
				fmt.Sprintf("💢 The shot rings out! (-%s)", s.robberLoss()),
				"🏥 You'll need stitches after this one!",
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("💥 \"%s's strapped with a shotty!\" someone yells!", s.Target.Name),
				fmt.Sprintf("💢 **BOOM!** You take the blast! (-%s)", s.robberLoss()),
			}
		},
	},
	Minor: {
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 Your plock is no match for %s's UZI!", s.Target.Mention),
				"💥 UZI fires!",
				fmt.Sprintf("💢 You're hit! (-%s)", s.robberLoss()),
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 %s pulls out an UZI when you show your plock!", s.Target.Mention),
				fmt.Sprintf("💢 Multiple hits! (-%s)", s.robberLoss()),
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 You brought a plock to an UZI fight with %s!", s.Target.Mention),
				"💥 UZI wins!",
				fmt.Sprintf("💢 You're wounded! (-%s)", s.robberLoss()),
			}
		},
	},
}

var deterredScripts = []scriptFunc{
	func(s script) []string {
		return []string{
			fmt.Sprintf("🔫 You pull out your pistol to rob %s, but freeze when you see their shotgun!", s.Target.Mention),
			fmt.Sprintf("💥 **CLICK!** %s cocks their shotgun!", s.Target.Name),
			"💨 You back away slowly, grateful to be alive!",
			"😅 You escaped without losing any money, but your pride is severely wounded!",
		}
	},
	func(s script) []string {
		return []string{
			fmt.Sprintf("💥 %s reveals a shotgun!", s.Target.Mention),
			"😱 \"You picked the wrong one today!\" they shout!",
			"💨 You decide this isn't worth it and flee. No money lost.",
		}
	},
	func(s script) []string {
		return []string{
			fmt.Sprintf("💥 %s's shotgun makes your plock look like a toy!", s.Target.Mention),
			"💨 You wisely run away with your wallet intact!",
		}
	},
}

var plainScripts = map[Variant][]scriptFunc{
	Major: {
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 You're robbing %s!", s.Target.Mention),
				fmt.Sprintf("💰 You empty their pockets: %s!", s.take()),
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 You corner %s in an alley!", s.Target.Mention),
				"😨 They put their hands up without a word.",
				fmt.Sprintf("💰 You walk off with %s!", s.take()),
			}
		},
	},
	Minor: {
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 You're robbing %s with your plock!", s.Target.Mention),
				fmt.Sprintf("💰 You snatch %s and run!", s.take()),
			}
		},
		func(s script) []string {
			return []string{
				fmt.Sprintf("🔫 You flash your plock at %s!", s.Target.Mention),
				"😰 They don't want any trouble.",
				fmt.Sprintf("💰 %s changes hands!", s.take()),
			}
		},
	},
}
