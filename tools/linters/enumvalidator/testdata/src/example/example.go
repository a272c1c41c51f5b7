package example

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type PartialReplyPolicy string

const (
	DiscardPartial PartialReplyPolicy = "discard"
)

// Label has no constants, so it is not an enum.
type Label string

type Message struct {
	Role    Role
	Content string
	Label   Label
}

type ExchangeConfig struct {
	PartialReplies PartialReplyPolicy
}

func bad() {
	m := &Message{}
	m.Role = "asistant" // want "enum field Role assigned string literal, use a Role constant"

	cfg := ExchangeConfig{PartialReplies: "persist"} // want "enum field PartialReplies assigned string literal, use a PartialReplyPolicy constant"
	_ = cfg
}

func good() {
	m := &Message{}
	m.Role = RoleAssistant
	m.Content = "hello"
	m.Label = "greeting"

	cfg := ExchangeConfig{PartialReplies: DiscardPartial}
	_ = cfg
}

func alsoGood() {
	// variables are not checked
	role := RoleUser
	m := &Message{Role: role}
	_ = m
}
