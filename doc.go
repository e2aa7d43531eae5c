/*
Package colloquy runs scripted chatbots described by a YAML vocabulary.

A vocabulary is a graph of nodes. Each node has one or more prompt phrases
and a list of answers; an answer leads to another node when the user presses
its choice, types one of its words (compared by base form, so "kittens"
matches "kitten"), or sends content of its declared type, such as a location.
Answers may add tags to the conversation and may be hidden behind conditions
over those tags.

# Usage

	bot, err := colloquy.New("voc.yaml",
		colloquy.WithStore(memory.NewStore()),
		colloquy.WithSender(ports.SenderFunc(func(ctx context.Context, r domain.RenderRequest) error {
			fmt.Println(r.Text)
			return nil
		})),
	)
	if err != nil {
		log.Fatal(err)
	}

	_, err = bot.HandleEvent(ctx, domain.Event{
		ConversationID: "42",
		Kind:           domain.KindText,
		Text:           "hello",
	})

Every conversation starts at the vocabulary's default node. Input that no
answer accepts is met with the node's misunderstood phrase. A broken
vocabulary (a missing node, a node without prompt) never breaks a
conversation: it is sent back to the default node and the problem is logged.

Transports live in pkg/adapters (Telegram, HTTP) and storage backends in
pkg/adapters/memory, pkg/adapters/redis and pkg/adapters/sqlstore.
*/
package colloquy
