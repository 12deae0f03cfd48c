package content

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"breathein/internal/schedule"
)

// Period is the part of day a slot falls in.
type Period string

const (
	Morning Period = "morning"
	Midday  Period = "midday"
	Evening Period = "evening"
)

// BaseHashtags closes every description.
const BaseHashtags = "#BlockScroll #Productivity #DigitalDetox #Motivation #SelfImprovement #Focus #Success #Mindfulness #BreakTheScroll #shorts #trending #viral #business #creator #youtuber #youtubeshorts"

var periodText = map[Period]string{
	Morning: "Start your day right! This morning motivation will help you focus on building success habits, not scrolling mindlessly!",
	Midday:  "Midday reality check! While you're scrolling, others are building their dreams. Time to refocus and make every moment count.",
	Evening: "Evening wake-up call! Don't let another day slip away in endless scrolling. Your future self will thank you for the time you invest wisely.",
}

// PeriodOf maps a slot to morning (before 11:00), midday (before 17:00) or
// evening.
func PeriodOf(slot schedule.Slot) Period {
	switch m := slot.Minutes(); {
	case m < 11*60:
		return Morning
	case m < 17*60:
		return Midday
	default:
		return Evening
	}
}

// Description returns the upload description for slot.
func Description(slot schedule.Slot) string {
	period := PeriodOf(slot)
	tag := "#" + cases.Title(language.English).String(string(period)) + "Motivation"
	return periodText[period] + "\n\n" + BaseHashtags + " " + tag
}
