package colloquy_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/pkg/domain"
)

// ExampleNew loads a vocabulary file and reports what it declares.
func ExampleNew() {
	bot, err := colloquy.New("internal/vocab/testdata/pets.yaml")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(bot.Name)
	fmt.Println(bot.Vocabulary().DefaultNode)
	fmt.Println(bot.NodeTypes())
	// Output:
	// pets.yaml
	// begin
	// [location plain variant]
}

// ExampleBot_HandleEvent walks a conversation built from Go structs:
// the first event opens the default node, pressing a choice moves on and collects its tags.
func ExampleBot_HandleEvent() {
	v := domain.NewVocabulary(map[string]*domain.NodeConfig{
		"begin": {
			Type:    domain.NodeTypeVariant,
			Prompts: []string{"Cats or dogs?"},
			Answers: []domain.AnswerSpec{
				{DisplayName: "Cats", Goto: "cats", Tags: []string{"likes_cats"}},
				{DisplayName: "Dogs", Goto: "dogs", Tags: []string{"likes_dogs"}},
			},
		},
		"cats": {Prompts: []string{"Meow."}},
		"dogs": {Prompts: []string{"Woof."}},
	}, "begin", []string{"Sorry?"})

	bot, err := colloquy.New("", colloquy.WithVocabulary(v), colloquy.WithLanguage("english"))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	res, err := bot.HandleEvent(ctx, domain.Event{ConversationID: "42", Kind: domain.KindText})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Outcome, res.To, res.Renders[0].Text)
	for _, c := range res.Renders[0].Choices {
		fmt.Printf("[%s] %s\n", c.Target, c.DisplayName)
	}

	choice := 0
	res, err = bot.HandleEvent(ctx, domain.Event{ConversationID: "42", Kind: domain.KindText, Choice: &choice})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Outcome, res.To, res.Renders[0].Text)

	tags, err := bot.Tags(ctx, "42")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tags)
	// Output:
	// started begin Cats or dogs?
	// [0] Cats
	// [1] Dogs
	// advanced cats Meow.
	// map[likes_cats:1 likes_dogs:0]
}
