package catalog

// Default returns the built-in 24-tile track and starter question set,
// used when no external catalog file is supplied.
func Default() *Catalog {
	return &Catalog{
		Tiles: []Tile{
			{Effect: EffectStart, Magnitude: 20, Text: "Start! Collect your stipend."},
			{Effect: EffectGain, Magnitude: 30, Text: "Found coins under the sofa."},
			{Effect: EffectNone, Magnitude: 0, Text: "A quiet stretch of road."},
			{Effect: EffectSteal, Magnitude: 0, Text: "Pickpocket alley: choose a victim."},
			{Effect: EffectLose, Magnitude: 25, Text: "Parking fine."},
			{Effect: EffectTax, Magnitude: 10, Text: "Tax office: collect dues from everyone."},
			{Effect: EffectGain, Magnitude: 50, Text: "Scratch ticket pays out."},
			{Effect: EffectWarp, Magnitude: 4, Text: "Tailwind: blow someone backwards."},
			{Effect: EffectReport, Magnitude: 80, Text: "Hotline: report a player to the authorities."},
			{Effect: EffectNone, Magnitude: 0, Text: "Scenic overlook."},
			{Effect: EffectParty, Magnitude: 15, Text: "You're buying a round for the table."},
			{Effect: EffectGamble, Magnitude: 0, Text: "Casino: double or half."},
			{Effect: EffectLapRace, Magnitude: 0, Text: "Halfway marker."},
			{Effect: EffectLose, Magnitude: 40, Text: "Dropped your wallet."},
			{Effect: EffectMagnet, Magnitude: 10, Text: "Coin magnet hums to life."},
			{Effect: EffectGain, Magnitude: 20, Text: "Busking tips."},
			{Effect: EffectSwap, Magnitude: 0, Text: "Hall of mirrors: trade fortunes."},
			{Effect: EffectNone, Magnitude: 0, Text: "Bus stop. Nothing arrives."},
			{Effect: EffectBomb, Magnitude: 20, Text: "Coin bomb! Everyone else pays."},
			{Effect: EffectGain, Magnitude: 35, Text: "Quiz show consolation prize."},
			{Effect: EffectRedistribute, Magnitude: 0, Text: "The great equalizer."},
			{Effect: EffectLose, Magnitude: 15, Text: "Overdue library book."},
			{Effect: EffectSteal, Magnitude: 0, Text: "Masked bandit: choose a victim."},
			{Effect: EffectNone, Magnitude: 0, Text: "Home stretch."},
		},
		Questions: []Question{
			{Prompt: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Mercury"}, CorrectIndex: 1},
			{Prompt: "What is the largest ocean on Earth?", Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, CorrectIndex: 2},
			{Prompt: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 1},
			{Prompt: "Which element has the chemical symbol O?", Options: []string{"Gold", "Osmium", "Oxygen", "Oganesson"}, CorrectIndex: 2},
			{Prompt: "In which year did the first moon landing occur?", Options: []string{"1965", "1969", "1972", "1959"}, CorrectIndex: 1},
			{Prompt: "What is the capital of Australia?", Options: []string{"Sydney", "Melbourne", "Canberra", "Perth"}, CorrectIndex: 2},
			{Prompt: "Which animal is the largest living land mammal?", Options: []string{"Hippopotamus", "African elephant", "White rhinoceros", "Giraffe"}, CorrectIndex: 1},
			{Prompt: "How many minutes are in a full day?", Options: []string{"1440", "1240", "1640", "2440"}, CorrectIndex: 0},
			{Prompt: "Which language has the most native speakers?", Options: []string{"English", "Hindi", "Spanish", "Mandarin Chinese"}, CorrectIndex: 3},
			{Prompt: "What gas do plants absorb from the atmosphere?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, CorrectIndex: 2},
			{Prompt: "Which instrument has 88 keys?", Options: []string{"Organ", "Piano", "Accordion", "Harpsichord"}, CorrectIndex: 1},
			{Prompt: "What is the smallest prime number?", Options: []string{"0", "1", "2", "3"}, CorrectIndex: 2},
		},
	}
}
