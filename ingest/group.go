package ingest

import "sort"

// GroupByConversation partitions messages by ConversationID into ordered
// Conversation lists, ordered by conversation id. Within a conversation
// the stable sort key is (ts, message_id). There is no separate rank for
// an absent ts: TS is a plain int64 and C3 rejects values below
// epoch-ms scale before messages reach the grouper.
func GroupByConversation(messages []NormalizedMessage) []Conversation {
	byID := make(map[string][]NormalizedMessage)
	order := make([]string, 0)
	for _, m := range messages {
		if _, ok := byID[m.ConversationID]; !ok {
			order = append(order, m.ConversationID)
		}
		byID[m.ConversationID] = append(byID[m.ConversationID], m)
	}
	sort.Strings(order)

	out := make([]Conversation, 0, len(order))
	for _, id := range order {
		msgs := byID[id]
		sort.SliceStable(msgs, func(i, j int) bool {
			return lessByTSThenID(msgs[i], msgs[j])
		})
		out = append(out, Conversation{ConversationID: id, Messages: msgs})
	}
	return out
}

func lessByTSThenID(a, b NormalizedMessage) bool {
	if a.TS != b.TS {
		return a.TS < b.TS
	}
	return a.MessageID < b.MessageID
}
