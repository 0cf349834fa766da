package prompt

import (
  "fmt"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/castly-org/castly-backend/internal/types"
)

func knowledgeEntry(title, content string) *types.CharacterKnowledge {
  return &types.CharacterKnowledge{
    ID:      uuid.New(),
    Title:   title,
    Content: content,
  }
}

func TestFilterKnowledge(t *testing.T) {
  t.Parallel()

  relativity := knowledgeEntry("Relativity", "E=mc^2")
  violin := knowledgeEntry("Violin", "Einstein played the violin his whole life")
  cooking := knowledgeEntry("Cooking", "A recipe for goulash")
  entries := []*types.CharacterKnowledge{relativity, violin, cooking}

  testCases := []struct {
    name     string
    query    string
    expected []*types.CharacterKnowledge
  }{
    {
      name:     "match on title",
      query:    "tell me about relativity",
      expected: []*types.CharacterKnowledge{relativity},
    },
    {
      name:     "match on content",
      query:    "do you like goulash",
      expected: []*types.CharacterKnowledge{cooking},
    },
    {
      name:     "case insensitive both ways",
      query:    "RELATIVITY and VIOLIN",
      expected: []*types.CharacterKnowledge{relativity, violin},
    },
    {
      name:     "substring token matches inside words",
      query:    "vio",
      expected: []*types.CharacterKnowledge{violin},
    },
    {
      name:     "no tokens match",
      query:    "quantum chromodynamics",
      expected: nil,
    },
    {
      name:     "empty query matches nothing",
      query:    "",
      expected: nil,
    },
    {
      name:     "whitespace only query matches nothing",
      query:    "   \t\n  ",
      expected: nil,
    },
  }

  for _, tc := range testCases {
    tc := tc
    t.Run(tc.name, func(t *testing.T) {
      t.Parallel()
      assert.Equal(t, tc.expected, FilterKnowledge(tc.query, entries))
    })
  }
}

func TestFilterKnowledgeKeepsStorageOrderAndDeduplicates(t *testing.T) {
  t.Parallel()

  first := knowledgeEntry("Alpha notes", "about violins")
  second := knowledgeEntry("Violin", "alpha quality strings")
  entries := []*types.CharacterKnowledge{first, second}

  // Both tokens hit both entries; each entry must appear once, in order.
  matched := FilterKnowledge("alpha violin", entries)
  require.Len(t, matched, 2)
  assert.Same(t, first, matched[0])
  assert.Same(t, second, matched[1])
}

func TestFilterKnowledgeEmptyEntries(t *testing.T) {
  t.Parallel()
  assert.Nil(t, FilterKnowledge("anything", nil))
}

func TestBuildConversationMessages(t *testing.T) {
  t.Parallel()

  character := &types.Character{
    Name:         "Einstein",
    SystemPrompt: "You are Einstein",
  }
  matched := []*types.CharacterKnowledge{
    knowledgeEntry("Relativity", "E=mc^2"),
  }
  history := []*types.Message{
    {Role: types.MessageRoleUser, Content: "Hello"},
    {Role: types.MessageRoleAssistant, Content: "Guten Tag"},
    {Role: types.MessageRoleUser, Content: "Explain relativity"},
  }

  msgs := BuildConversationMessages(character, matched, history)
  require.Len(t, msgs, 4)
  assert.Equal(t, RoleSystem, msgs[0].Role)
  assert.Equal(t, "You are Einstein\n\nRelevant knowledge:\nRelativity: E=mc^2", msgs[0].Content)
  assert.Equal(t, Message{Role: RoleUser, Content: "Hello"}, msgs[1])
  assert.Equal(t, Message{Role: RoleAssistant, Content: "Guten Tag"}, msgs[2])
  assert.Equal(t, Message{Role: RoleUser, Content: "Explain relativity"}, msgs[3])
}

func TestBuildConversationMessagesNoKnowledge(t *testing.T) {
  t.Parallel()

  character := &types.Character{SystemPrompt: "You are Einstein"}
  msgs := BuildConversationMessages(character, nil, nil)
  require.Len(t, msgs, 1)
  assert.Equal(t, "You are Einstein", msgs[0].Content)
}

func TestBuildConversationMessagesJoinsMultipleKnowledgeWithNewlines(t *testing.T) {
  t.Parallel()

  character := &types.Character{SystemPrompt: "You are Einstein"}
  matched := []*types.CharacterKnowledge{
    knowledgeEntry("Relativity", "E=mc^2"),
    knowledgeEntry("Violin", "played since age six"),
  }
  msgs := BuildConversationMessages(character, matched, nil)
  assert.Equal(t,
    "You are Einstein\n\nRelevant knowledge:\nRelativity: E=mc^2\nViolin: played since age six",
    msgs[0].Content)
}

func TestBuildGroupSystemPrompt(t *testing.T) {
  t.Parallel()

  kant := &types.Character{ID: uuid.New(), Name: "Kant", SystemPrompt: "You are Kant"}
  mill := &types.Character{ID: uuid.New(), Name: "Mill", SystemPrompt: "You are Mill"}
  groupChat := &types.GroupChat{Name: "Ethics", Topic: "The trolley problem"}

  system := BuildGroupSystemPrompt(kant, groupChat, []*types.Character{kant, mill}, nil)
  assert.Equal(t,
    "You are Kant\n\nDiscussion topic: The trolley problem\n\nYou are participating in a group discussion with: Kant, Mill",
    system)
}

func TestBuildGroupSystemPromptNoTopicWithKnowledge(t *testing.T) {
  t.Parallel()

  kant := &types.Character{ID: uuid.New(), Name: "Kant", SystemPrompt: "You are Kant"}
  mill := &types.Character{ID: uuid.New(), Name: "Mill", SystemPrompt: "You are Mill"}
  groupChat := &types.GroupChat{Name: "Ethics"}
  matched := []*types.CharacterKnowledge{
    knowledgeEntry("Imperative", "act only on universalizable maxims"),
  }

  system := BuildGroupSystemPrompt(kant, groupChat, []*types.Character{kant, mill}, matched)
  assert.Equal(t,
    "You are Kant\n\nYou are participating in a group discussion with: Kant, Mill\n\nRelevant knowledge:\nImperative: act only on universalizable maxims",
    system)
}

func TestBuildGroupMessages(t *testing.T) {
  t.Parallel()

  kantID := uuid.New()
  millID := uuid.New()
  strangerID := uuid.New()
  kant := &types.Character{ID: kantID, Name: "Kant"}
  mill := &types.Character{ID: millID, Name: "Mill"}
  participants := []*types.Character{kant, mill}

  history := []*types.GroupChatMessage{
    {CharacterID: nil, Content: "What about the trolley problem?"},
    {CharacterID: &kantID, Content: "One may never treat a person as a mere means."},
    {CharacterID: &millID, Content: "Five lives outweigh one."},
    {CharacterID: &strangerID, Content: "An unattributed remark."},
  }

  msgs := BuildGroupMessages("system text", participants, history)
  require.Len(t, msgs, 5)
  assert.Equal(t, Message{Role: RoleSystem, Content: "system text"}, msgs[0])
  // Every history turn is a "user" message prefixed with the author name.
  assert.Equal(t, Message{Role: RoleUser, Content: "User: What about the trolley problem?"}, msgs[1])
  assert.Equal(t, Message{Role: RoleUser, Content: "Kant: One may never treat a person as a mere means."}, msgs[2])
  assert.Equal(t, Message{Role: RoleUser, Content: "Mill: Five lives outweigh one."}, msgs[3])
  assert.Equal(t, Message{Role: RoleUser, Content: "Character: An unattributed remark."}, msgs[4])
}

func TestBuildGroupMessagesKeepsOnlyLastTen(t *testing.T) {
  t.Parallel()

  var history []*types.GroupChatMessage
  for i := 0; i < 14; i++ {
    history = append(history, &types.GroupChatMessage{Content: fmt.Sprintf("turn %d", i)})
  }

  msgs := BuildGroupMessages("system", nil, history)
  require.Len(t, msgs, 11)
  assert.Equal(t, "User: turn 4", msgs[1].Content)
  assert.Equal(t, "User: turn 13", msgs[10].Content)
}

func TestRelevanceQuery(t *testing.T) {
  t.Parallel()

  var history []*types.GroupChatMessage
  for i := 0; i < 7; i++ {
    history = append(history, &types.GroupChatMessage{Content: fmt.Sprintf("m%d", i)})
  }
  assert.Equal(t, "m2 m3 m4 m5 m6", RelevanceQuery(history))
  assert.Equal(t, "", RelevanceQuery(nil))
}
