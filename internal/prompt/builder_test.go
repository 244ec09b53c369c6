package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/easeaico/crystal-sanctuary/internal/emotion"
	"github.com/easeaico/crystal-sanctuary/internal/session"
	"github.com/easeaico/crystal-sanctuary/internal/utils"
	"github.com/easeaico/crystal-sanctuary/internal/world"
)

func mustWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.Default()
	if err != nil {
		t.Fatalf("failed to load world: %v", err)
	}
	return w
}

func TestBuildPrimaryPrompt(t *testing.T) {
	w := mustWorld(t)
	elara, _ := w.Companion("elara")
	lake, _ := w.Landmark("mirror_lake")

	var history []session.Entry
	for i := range 8 {
		history = append(history, session.Entry{Sender: session.PlayerSender, Content: fmt.Sprintf("message %d", i)})
	}
	history = append(history, session.Entry{Sender: "bramble", Content: "I hear you."})

	contents, err := NewBuilder(w, 0).Build(BuildContext{
		Companion:  elara,
		Landmark:   lake,
		Mood:       emotion.MoodUplifted,
		Atmosphere: w.Atmosphere("curious"),
		History:    history,
		Message:    "What is this place?",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 2 || contents[0].Role != "system" || contents[1].Role != "user" {
		t.Fatalf("unexpected contents: %+v", contents)
	}

	system := utils.ExtractContentText(contents[0])
	for _, want := range []string{
		"You are Elara",
		"The Mirror Lake",
		"reflection, truth-seeking, inner dialogue",
		emotion.MoodInstruction(emotion.MoodUplifted),
		"Bramble: I hear you.",
		"Traveler: message 7",
		"20-30 words",
	} {
		if !strings.Contains(system, want) {
			t.Fatalf("expected system prompt to contain %q:\n%s", want, system)
		}
	}
	if strings.Contains(system, "message 3") {
		t.Fatalf("history beyond the context window leaked into the prompt:\n%s", system)
	}
	if strings.Contains(system, "discussing with") {
		t.Fatalf("primary prompt must not carry discussion instructions")
	}
	if got := utils.ExtractContentText(contents[1]); got != "What is this place?" {
		t.Fatalf("expected player message as user content, got %q", got)
	}
}

func TestBuildDiscussionPrompt(t *testing.T) {
	w := mustWorld(t)
	kael, _ := w.Companion("kael")
	bramble, _ := w.Companion("bramble")
	dynamic, ok := w.Relationship("kael", "bramble")
	if !ok {
		t.Fatalf("expected a kael/bramble relationship")
	}
	style := w.Tuning.Discussion.Patterns[0]

	contents, err := NewBuilder(w, 0).Build(BuildContext{
		Companion: kael,
		Discussion: &Discussion{
			Partner: bramble,
			Dynamic: dynamic,
			Style:   style,
			Topic:   "philosophy",
			ReplyTo: "Feelings are truths too.",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	system := utils.ExtractContentText(contents[0])
	if !strings.Contains(system, "You're discussing with Bramble. "+dynamic.InteractionStyle) {
		t.Fatalf("expected relationship dynamic in system prompt:\n%s", system)
	}
	if !strings.Contains(system, style.Instruction) {
		t.Fatalf("expected style instruction in system prompt:\n%s", system)
	}
	if strings.Contains(system, "Current location") {
		t.Fatalf("nil landmark must omit the location block")
	}

	user := utils.ExtractContentText(contents[1])
	for _, want := range []string{"discussion with Bramble about: philosophy", `Bramble just said: "Feelings are truths too."`, "in 15 words"} {
		if !strings.Contains(user, want) {
			t.Fatalf("expected discussion prompt to contain %q:\n%s", want, user)
		}
	}
}

func TestBuildRequiresCompanion(t *testing.T) {
	w := mustWorld(t)
	if _, err := NewBuilder(w, 0).Build(BuildContext{}); err == nil {
		t.Fatalf("expected error without a companion")
	}
	elara, _ := w.Companion("elara")
	if _, err := NewBuilder(w, 0).Build(BuildContext{Companion: elara, Discussion: &Discussion{}}); err == nil {
		t.Fatalf("expected error without a discussion partner")
	}
}
