package prompt

import (
  "strings"

  "github.com/castly-org/castly-backend/internal/types"
)

const (
  RoleSystem    = "system"
  RoleUser      = "user"
  RoleAssistant = "assistant"
)

const (
  knowledgeHeader   = "\n\nRelevant knowledge:\n"
  topicHeader       = "\n\nDiscussion topic: "
  rosterHeader      = "\n\nYou are participating in a group discussion with: "
  unknownAuthorName = "Character"
  userAuthorName    = "User"
)

// How much group history feeds the relevance query vs. the model context.
const (
  RelevanceWindow = 5
  HistoryWindow   = 10
)

// Message is one role/content pair handed to the model.
type Message struct {
  Role        string      `json:"role"`
  Content     string      `json:"content"`
}

// FilterKnowledge returns the entries whose lower-cased title or content
// contains at least one whitespace-separated token of the lower-cased query
// as a literal substring. No stemming, no scoring; storage order is kept and
// an entry matched by several tokens appears once.
func FilterKnowledge(query string, entries []*types.CharacterKnowledge) []*types.CharacterKnowledge {
  tokens := strings.Fields(strings.ToLower(query))
  if len(tokens) == 0 || len(entries) == 0 {
    return nil
  }
  var matched []*types.CharacterKnowledge
  for _, entry := range entries {
    title := strings.ToLower(entry.Title)
    content := strings.ToLower(entry.Content)
    for _, token := range tokens {
      if strings.Contains(title, token) || strings.Contains(content, token) {
        matched = append(matched, entry)
        break
      }
    }
  }
  return matched
}

// RelevanceQuery joins the content of the most recent messages into the
// query text used for knowledge filtering in group chats.
func RelevanceQuery(history []*types.GroupChatMessage) string {
  recent := lastGroupMessages(history, RelevanceWindow)
  parts := make([]string, 0, len(recent))
  for _, m := range recent {
    parts = append(parts, m.Content)
  }
  return strings.Join(parts, " ")
}

func renderKnowledge(matched []*types.CharacterKnowledge) string {
  lines := make([]string, 0, len(matched))
  for _, k := range matched {
    lines = append(lines, k.Title+": "+k.Content)
  }
  return knowledgeHeader + strings.Join(lines, "\n")
}

// BuildConversationMessages assembles the one-on-one prompt: the character's
// system prompt (plus any matched knowledge) first, then the full stored
// history with each message keeping its own stored role.
func BuildConversationMessages(character *types.Character, matched []*types.CharacterKnowledge, history []*types.Message) []Message {
  system := character.SystemPrompt
  if len(matched) > 0 {
    system += renderKnowledge(matched)
  }
  msgs := make([]Message, 0, len(history)+1)
  msgs = append(msgs, Message{Role: RoleSystem, Content: system})
  for _, m := range history {
    msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
  }
  return msgs
}

// BuildGroupSystemPrompt assembles the system instruction for one speaking
// character in a group chat. The roster line lists every participant,
// the speaker included.
func BuildGroupSystemPrompt(character *types.Character, groupChat *types.GroupChat, participants []*types.Character, matched []*types.CharacterKnowledge) string {
  system := character.SystemPrompt
  if groupChat.Topic != "" {
    system += topicHeader + groupChat.Topic
  }
  names := make([]string, 0, len(participants))
  for _, p := range participants {
    if p == nil || p.Name == "" {
      continue
    }
    names = append(names, p.Name)
  }
  system += rosterHeader + strings.Join(names, ", ")
  if len(matched) > 0 {
    system += renderKnowledge(matched)
  }
  return system
}

// BuildGroupMessages linearizes the last HistoryWindow group messages,
// oldest first. Every prior turn is deliberately emitted under the "user"
// role as "{AuthorName}: {content}"; the assistant/system distinction of
// one-on-one chat is not preserved here.
func BuildGroupMessages(system string, participants []*types.Character, history []*types.GroupChatMessage) []Message {
  recent := lastGroupMessages(history, HistoryWindow)
  msgs := make([]Message, 0, len(recent)+1)
  msgs = append(msgs, Message{Role: RoleSystem, Content: system})
  for _, m := range recent {
    author := userAuthorName
    if m.CharacterID != nil {
      author = unknownAuthorName
      for _, p := range participants {
        if p != nil && p.ID == *m.CharacterID {
          author = p.Name
          break
        }
      }
    }
    msgs = append(msgs, Message{Role: RoleUser, Content: author + ": " + m.Content})
  }
  return msgs
}

func lastGroupMessages(history []*types.GroupChatMessage, n int) []*types.GroupChatMessage {
  if len(history) <= n {
    return history
  }
  return history[len(history)-n:]
}
