package vton

import (
	"strings"
	"testing"
)

func TestBuildPromptContainsContractClauses(t *testing.T) {
	prompt := BuildPrompt([]GarmentInput{{
		Image:       "base64...",
		Description: "A blue silk saree",
		Category:    "Women",
	}})

	for _, clause := range []string{
		"SUBJECT IS HOLY",
		"GHOST LIMB REMOVAL",
		"RE-DRAPE THE FABRIC",
		"ADAPT TO TARGET",
		"Item 1 [Category: Women]: A blue silk saree",
	} {
		if !strings.Contains(prompt, clause) {
			t.Fatalf("prompt missing %q:\n%s", clause, prompt)
		}
	}
}

func TestBuildPromptNumbersItemsInOrder(t *testing.T) {
	prompt := BuildPrompt([]GarmentInput{
		{Description: "Shirt", Category: "Top"},
		{Description: "Jeans", Category: "Bottom"},
	})

	if !strings.Contains(prompt, "Item 1 [Category: Top]: Shirt") {
		t.Fatalf("missing first item line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Item 2 [Category: Bottom]: Jeans") {
		t.Fatalf("missing second item line:\n%s", prompt)
	}
	if strings.Index(prompt, "Item 1") > strings.Index(prompt, "Item 2") {
		t.Fatal("items emitted out of input order")
	}
}

func TestBuildPromptDefaultsMissingCategory(t *testing.T) {
	prompt := BuildPrompt([]GarmentInput{{Description: "Linen kurta"}})
	if !strings.Contains(prompt, "Item 1 [Category: Apparel]: Linen kurta") {
		t.Fatalf("missing default category label:\n%s", prompt)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	in := []GarmentInput{{Description: "Denim jacket", Category: "Men"}}
	if BuildPrompt(in) != BuildPrompt(in) {
		t.Fatal("BuildPrompt must be deterministic")
	}
}

func TestBuildPromptEmptyInputStillWellFormed(t *testing.T) {
	prompt := BuildPrompt(nil)
	if !strings.Contains(prompt, "SUBJECT IS HOLY") || !strings.Contains(prompt, "Generate ONLY the final image") {
		t.Fatalf("empty garment list must still produce the full instruction frame:\n%s", prompt)
	}
}
