package coach

import "github.com/kalambet/quarterlog/internal/settings"

// persona is the coach's role and default voice for a goal.
type persona struct {
	role string
	tone string
}

var personas = map[settings.Goal]persona{
	settings.GoalFocus: {
		role: "You are a ruthless Drill Sergeant specializing in productivity. Your enemy is Distraction.",
		tone: "Direct, critical, short, punchy. No fluff.",
	},
	settings.GoalBusiness: {
		role: "You are a high-end Management Consultant. Your enemy is Stagnation and low ROI.",
		tone: "Professional, analytical, dollar-focused. Calculate opportunity cost.",
	},
	settings.GoalLife: {
		role: "You are a holistic Wellness and Performance Coach. Your enemy is Burnout.",
		tone: "Empathetic but firm. Focus on energy management.",
	},
}

var toneOverrides = map[settings.Tone]string{
	settings.ToneTough: "Brutally honest. Call out every excuse.",
	settings.ToneLogic: "Cold and data-driven. Cite numbers from the log.",
	settings.ToneKind:  "Warm and encouraging. Celebrate progress before critique.",
}

func personaFor(goal settings.Goal, tone settings.Tone) persona {
	p, ok := personas[goal]
	if !ok {
		p = personas[settings.GoalFocus]
	}
	if t, ok := toneOverrides[tone]; ok {
		p.tone = t
	}
	return p
}
