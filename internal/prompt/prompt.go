// Package prompt maps a guide category to the instruction sent to the video
// processor.
package prompt

import "github.com/sakif/video-guides/internal/model"

// Generic is used for any category without a dedicated prompt.
const Generic = "Describe this video"

var byCategory = map[model.Category]string{
	model.CategoryCooking:   "In markdown, Write a detailed recipe and cooking instructions in this video",
	model.CategoryFaceMasks: "In neat markdown, write the ingredients and its measurments plus benefits and instructions on how to apply from the mask made in this video.",
	model.CategoryDIY:       "In markdown, write a step-by-step guide for the DIY project shown in this video.",
}

// For returns the prompt for c. Unknown categories fall back to Generic
// instead of failing; callers that bill users validate the category first.
func For(c model.Category) string {
	if p, ok := byCategory[c]; ok {
		return p
	}
	return Generic
}
