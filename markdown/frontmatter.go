package markdown

// FrontMatter is the YAML document between the leading `---` markers of
// a rendered thread (§4.7). Field order matches the declared key order
// exactly, which yaml.v3 preserves by default for struct marshaling.
type FrontMatter struct {
	Thread         string   `yaml:"thread"`
	Provider       string   `yaml:"provider"`
	Models         []string `yaml:"models"`
	MessageCount   int      `yaml:"message_count"`
	Range          string   `yaml:"range"`
	PartIndex      int      `yaml:"part_index,omitempty"`
	PartTotal      int      `yaml:"part_total,omitempty"`
	GeneratedAtUTC string   `yaml:"generated_at_utc"`
	TZ             string   `yaml:"tz"`
}
