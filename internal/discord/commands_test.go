package discord

import (
	"strings"
	"testing"
)

func TestHelpCommandRegistered(t *testing.T) {
	for _, cmd := range commandDefs() {
		if cmd.Name == "help" {
			return
		}
	}
	t.Error("command surface does not include help")
}

func TestHelpEmbedCoversAllCommands(t *testing.T) {
	defs := commandDefs()
	embed := helpEmbed()

	if len(embed.Fields) != len(defs) {
		t.Fatalf("helpEmbed() has %d fields, want %d", len(embed.Fields), len(defs))
	}

	for i, cmd := range defs {
		field := embed.Fields[i]
		if field.Name != titled(cmd.Name) {
			t.Errorf("field %d name = %q, want %q", i, field.Name, titled(cmd.Name))
		}
		if !strings.Contains(field.Value, "/"+cmd.Name) {
			t.Errorf("field %q does not mention /%s:\n%s", field.Name, cmd.Name, field.Value)
		}
		for _, sub := range cmd.Options {
			if !strings.Contains(field.Value, cmd.Name+" "+sub.Name) {
				t.Errorf("field %q does not list subcommand %s:\n%s", field.Name, sub.Name, field.Value)
			}
		}
	}
}
