package catalog

// Raw YAML document shapes. Numeric effect arguments are pointers so a
// missing argument is distinguishable from an explicit zero and can be
// reported as a validation error instead of silently defaulting.

type catalogFile struct {
	Cards []rawCard `yaml:"cards"`
}

type rawCard struct {
	ID     string     `yaml:"id"`
	Name   string     `yaml:"name"`
	Cost   int        `yaml:"cost"`
	Traits []string   `yaml:"traits"`
	Effect *rawEffect `yaml:"effect"`
}

type rawEffect struct {
	Kind string `yaml:"kind"`

	// draw, gain_resource
	N *int `yaml:"n"`

	// set_flag
	Flag  string `yaml:"flag"`
	Value *bool  `yaml:"value"`

	// discard
	Selector *rawSelector `yaml:"selector"`

	// conditional
	If   *rawPredicate `yaml:"if"`
	Then *rawEffect    `yaml:"then"`
	Else *rawEffect    `yaml:"else"`

	// sequence
	Effects []rawEffect `yaml:"effects"`
}

type rawPredicate struct {
	Kind string `yaml:"kind"`
	N    *int   `yaml:"n"`
	Flag string `yaml:"flag"`
}

type rawSelector struct {
	Kind  string `yaml:"kind"`
	N     *int   `yaml:"n"`
	Trait string `yaml:"trait"`
}

type deckFile struct {
	Name  string     `yaml:"name"`
	Cards []rawEntry `yaml:"cards"`

	Investigator *rawInvestigator `yaml:"investigator"`
	Scenario     *rawScenario     `yaml:"scenario"`
}

type rawEntry struct {
	ID       string `yaml:"id"`
	Quantity int    `yaml:"quantity"`
}

type rawInvestigator struct {
	Name              string      `yaml:"name"`
	StartingResources int         `yaml:"starting_resources"`
	StartingHandSize  int         `yaml:"starting_hand_size"`
	SpecialRules      []rawEffect `yaml:"special_rules"`
}

type rawScenario struct {
	Name           string          `yaml:"name"`
	BonusResources int             `yaml:"bonus_resources"`
	BonusHandSize  int             `yaml:"bonus_hand_size"`
	StartingFlags  map[string]bool `yaml:"starting_flags"`
}
