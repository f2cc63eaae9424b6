package config

// DefaultFood is the built-in food response table. Triggers are the emoji
// the bot can be "fed"; responses run in order, with "echo" repeating the
// trigger back and "party" firing a celebratory burst.
func DefaultFood() map[string]FoodCategory {
	return map[string]FoodCategory{
		"standard": {
			Triggers: []string{
				"🍇", "🍈", "🍉", "🍊", "🍌", "🍍", "🥭", "🍎", "🍏", "🍐",
				"🍒", "🍓", "🫐", "🥝", "🍅", "🫒", "🥥", "🥑", "🥔", "🌽",
				"🥜", "🌰", "🍞", "🥐", "🥖", "🫓", "🥨", "🥯", "🧇", "🍖",
				"🍗", "🥓", "🍔", "🍕", "🌭", "🍟", "🥪", "🌮", "🌯", "🫔",
				"🧆", "🍳", "🍿", "🍘", "🍙", "🍠", "🍢", "🥮", "🍡", "🥟",
				"🥠", "🦪", "🍩", "🍪", "🍰", "🧁", "🍬", "🍭", "🍼", "🥛",
				"☕", "🍵", "🥤", "🧋", "🧃", "🧉",
			},
			Responses: []string{"😋", "echo"},
		},
		"chocolate": {Triggers: []string{"🍫"}, Responses: []string{"😋", "🍫", "💜"}},
		"alcohol": {
			Triggers:  []string{"🍶", "🍾", "🍷", "🍸", "🍹", "🍺", "🍻", "🥂", "🥃"},
			Responses: []string{"echo", "🥴"},
		},
		"teapot": {Triggers: []string{"🫖"}, Responses: []string{"😋", "☕"}},
		"cutlery_foods": {
			Triggers:  []string{"🥘", "🫕", "🥗", "🍝", "🥧", "🥙", "🥞", "🥩"},
			Responses: []string{"😋", "echo", "🍴"},
		},
		"chopstick_foods": {
			Triggers:  []string{"🍲", "🍱", "🍚", "🍛", "🍜", "🍣", "🍤", "🍥", "🥡"},
			Responses: []string{"😋", "echo", "🥢"},
		},
		"spoon_foods": {
			Triggers:  []string{"🥣", "🍧", "🍨", "🍮", "🍯"},
			Responses: []string{"😋", "echo", "🥄"},
		},
		"tongue_foods": {Triggers: []string{"🍦"}, Responses: []string{"👅", "echo", "😋"}},
		"rabbit_food":  {Triggers: []string{"🥬", "🥕"}, Responses: []string{"🐰"}},
		"mouse_food":   {Triggers: []string{"🧀"}, Responses: []string{"🐭"}},
		"weird_foods": {
			Triggers:  []string{"🍋", "🍆", "🍑", "🫑", "🥒", "🥦", "🧄", "🧅", "🍄", "🥚", "🧈"},
			Responses: []string{"😕"},
		},
		"eye_roll_foods": {Triggers: []string{"🍽️"}, Responses: []string{"🙄"}},
		"dangerous_foods": {
			Triggers:  []string{"💣", "🧨", "🗡️", "🔪", "🦠", "🧫"},
			Responses: []string{"🙅", "😨"},
		},
		"nausea": {Triggers: []string{"🚬"}, Responses: []string{"🙅", "🤢"}},
		"vomit": {
			Triggers:  []string{"🐛", "🐜", "🪲", "🦟", "🐞", "🦗", "🪰"},
			Responses: []string{"🤢", "🤮", "😭"},
		},
		"bee":      {Triggers: []string{"🐝"}, Responses: []string{"🙅", "echo", "🌻", "👉", "🍯", "😊"}},
		"baby":     {Triggers: []string{"👶"}, Responses: []string{"🙅", "😢"}},
		"alien":    {Triggers: []string{"🛸"}, Responses: []string{"👽"}},
		"zombie":   {Triggers: []string{"🧠"}, Responses: []string{"🧟"}},
		"vampire":  {Triggers: []string{"🩸", "🆎", "🅱️", "🅾️", "🅰️"}, Responses: []string{"🧛"}},
		"spicy":    {Triggers: []string{"🌶️"}, Responses: []string{"🥵"}},
		"ice":      {Triggers: []string{"🧊"}, Responses: []string{"🥶"}},
		"bone":     {Triggers: []string{"🦴"}, Responses: []string{"🐶"}},
		"birthday": {Triggers: []string{"🎂"}, Responses: []string{"😋", "party"}},
		"money":    {Triggers: []string{"💸", "💰", "💵"}, Responses: []string{"🤑"}},
	}
}
