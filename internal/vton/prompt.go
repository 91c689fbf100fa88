package vton

import (
	"fmt"
	"strings"
)

// GarmentInput is one garment the backend should dress the subject in:
// its transport-form image plus the catalog text used for prompting.
type GarmentInput struct {
	Image       string
	Description string
	Category    string
}

// DefaultCategoryLabel is emitted when a garment carries no category.
const DefaultCategoryLabel = "Apparel"

const promptHeader = `ROLE: Expert Virtual Try-On (VTON) AI.

TASK: Synthesize a photorealistic image of the "Target Person" (IMAGE_SUBJECT) wearing the "Apparel" (IMAGE_PRODUCTS).

--------------------------------------------------------
CRITICAL INSTRUCTION - ANATOMY & ARTIFACT PREVENTION
--------------------------------------------------------
1. **SUBJECT IS HOLY**: The Target Person's body, pose, arms, hands, legs, and face must be preserved EXACTLY as they appear in IMAGE_SUBJECT.
   - DO NOT generate new limbs.
   - DO NOT change the pose.

2. **PRODUCT IMAGE IS "FABRIC ONLY"**:
   - The models/mannequins in IMAGE_PRODUCTS are strictly for displaying the cloth.
   - **IGNORE** their hands, arms, faces, and skin.
   - **GHOST LIMB REMOVAL**: If the product model has a hand resting on the clothing (e.g., holding a saree pallu or a dress hem), YOU MUST REMOVE THAT HAND. Inpaint the missing fabric texture underneath it.
   - **FAIL STATE**: If the output contains three hands or a disembodied hand floating on the cloth, the generation is a failure.

3. **CLOTHING INTEGRATION & DRAPING**:
   - **RE-DRAPE THE FABRIC**: Do not copy the rigid shape or folds from the product image. The product image often has folds specific to that model's pose (e.g., bent knee, hand on hip).
   - **ADAPT TO TARGET**: You must simulate how this specific fabric (silk, cotton, denim) would hang on the TARGET PERSON'S pose.
   - If the product image is a saree folded over a model's arm, but the target person's arm is straight, you must unfold the saree and let it fall naturally.

--------------------------------------------------------
INPUTS
--------------------------------------------------------
IMAGE_SUBJECT: The user to dress.
IMAGE_PRODUCTS: The clothing to transfer.

PRODUCT LIST:`

const promptFooter = `
--------------------------------------------------------
OUTPUT
--------------------------------------------------------
Generate ONLY the final image. High resolution. Photorealistic.`

// BuildPrompt renders the instruction payload for one composition request.
// Garments appear as numbered lines in input order; the anatomy and draping
// blocks above are contract text the backend prompt depends on and are
// present for every invocation. Pure and deterministic; empty descriptions
// and missing categories degrade to defaults rather than failing.
func BuildPrompt(garments []GarmentInput) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	for i, g := range garments {
		category := strings.TrimSpace(g.Category)
		if category == "" {
			category = DefaultCategoryLabel
		}
		fmt.Fprintf(&b, "\n   - Item %d [Category: %s]: %s", i+1, category, strings.TrimSpace(g.Description))
	}
	b.WriteString("\n")
	b.WriteString(promptFooter)
	return b.String()
}
