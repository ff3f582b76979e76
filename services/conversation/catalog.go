package conversation

import (
	"fmt"
	"strings"
	"time"

	"clinicbot/models"
)

const (
	slotPrefix    = "slot_"
	servicePrefix = "service_"
)

// Content is the clinic's static content shown for informational intents.
type Content struct {
	ClinicName      string
	LocationURL     string
	OfferImageURLs  []string
	DoctorImageURLs []string
}

// Catalog holds the bookable options and static content the engine works with.
type Catalog struct {
	Slots     []models.Slot
	Shortcuts []models.Shortcut
	Services  []models.Service
	ClosedDay time.Weekday
	Content   Content

	closedDayNames []string
}

var defaultSlots = []models.Slot{
	{ID: "sat_4pm", Title: "السبت 4:00 م"},
	{ID: "sun_4pm", Title: "الأحد 4:00 م"},
	{ID: "mon_6pm", Title: "الاثنين 6:00 م"},
	{ID: "tue_6pm", Title: "الثلاثاء 6:00 م"},
	{ID: "wed_9pm", Title: "الأربعاء 9:00 م"},
	{ID: "thu_9pm", Title: "الخميس 9:00 م"},
}

var defaultShortcuts = []models.Shortcut{
	{Key: "3", Title: "3:00 م"},
	{Key: "6", Title: "6:00 م"},
	{Key: "9", Title: "9:00 م"},
}

var defaultServices = []models.Service{
	{ID: "checkup", Title: "فحص عام", Aliases: []string{"checkup", "general checkup"}},
	{ID: "cleaning", Title: "تنظيف الأسنان", Aliases: []string{"cleaning", "teeth cleaning"}},
	{ID: "filling", Title: "حشوة", Aliases: []string{"filling"}},
	{ID: "whitening", Title: "تبييض الأسنان", Aliases: []string{"whitening"}},
	{ID: "braces", Title: "تقويم الأسنان", Aliases: []string{"braces", "orthodontics"}},
}

// weekdayNames lists how each weekday may be written by users and in slot labels.
var weekdayNames = map[time.Weekday][]string{
	time.Sunday:    {"sunday", "sun", "الأحد", "الاحد"},
	time.Monday:    {"monday", "mon", "الاثنين", "الإثنين"},
	time.Tuesday:   {"tuesday", "tue", "الثلاثاء", "ثلاثاء"},
	time.Wednesday: {"wednesday", "wed", "الأربعاء", "الاربعاء", "اربعاء"},
	time.Thursday:  {"thursday", "thu", "الخميس", "خميس"},
	time.Friday:    {"friday", "fri", "الجمعة", "جمعة", "جمعه"},
	time.Saturday:  {"saturday", "sat", "السبت", "سبت"},
}

var weekdayLabels = map[models.Language]map[time.Weekday]string{
	models.LanguageArabic: {
		time.Sunday: "الأحد", time.Monday: "الاثنين", time.Tuesday: "الثلاثاء",
		time.Wednesday: "الأربعاء", time.Thursday: "الخميس", time.Friday: "الجمعة", time.Saturday: "السبت",
	},
	models.LanguageEnglish: {
		time.Sunday: "Sunday", time.Monday: "Monday", time.Tuesday: "Tuesday",
		time.Wednesday: "Wednesday", time.Thursday: "Thursday", time.Friday: "Friday", time.Saturday: "Saturday",
	},
}

// NewCatalog builds a catalog, falling back to the built-in slots, shortcuts
// and services for any list left empty.
func NewCatalog(slots []models.Slot, shortcuts []models.Shortcut, services []models.Service, closedDay time.Weekday, content Content) *Catalog {
	if len(slots) == 0 {
		slots = defaultSlots
	}
	if len(shortcuts) == 0 {
		shortcuts = defaultShortcuts
	}
	if len(services) == 0 {
		services = defaultServices
	}
	return &Catalog{
		Slots:          slots,
		Shortcuts:      shortcuts,
		Services:       services,
		ClosedDay:      closedDay,
		Content:        content,
		closedDayNames: foldAll(weekdayNames[closedDay]),
	}
}

// ParseWeekday accepts an English weekday name such as "friday".
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.ToLower(day.String()) == s {
			return day, nil
		}
	}
	return time.Sunday, fmt.Errorf("conversation: unknown weekday %q", s)
}

// ClosedDayLabel returns the closed weekday's name in the given language.
func (c *Catalog) ClosedDayLabel(lang models.Language) string {
	return weekdayLabels[lang][c.ClosedDay]
}

// MentionsClosedDay reports whether text names the clinic's closed weekday.
// Latin names must appear as whole words; Arabic names may carry prefixes such as "يوم".
func (c *Catalog) MentionsClosedDay(text string) bool {
	folded := fold(text)
	words := tokens(folded)
	for _, name := range c.closedDayNames {
		if !isLatinWord(name) {
			if strings.Contains(folded, name) {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == name {
				return true
			}
		}
	}
	return false
}

// SlotBySelection resolves a "slot_<id>" selection to a configured slot.
// Unknown ids still resolve, using the selection text as the label.
func (c *Catalog) SlotBySelection(turn models.Turn) (string, bool) {
	if !strings.HasPrefix(turn.SelectionID, slotPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(turn.SelectionID, slotPrefix)
	for _, s := range c.Slots {
		if s.ID == id {
			return s.Title, true
		}
	}
	return turn.Text, turn.Text != ""
}

// ShortcutSlot returns the slot label when text is exactly a numeric shortcut.
func (c *Catalog) ShortcutSlot(text string) (string, bool) {
	key := strings.TrimSpace(NormalizeDigits(text))
	for _, s := range c.Shortcuts {
		if s.Key == key {
			return s.Title, true
		}
	}
	return "", false
}

// SlotSignal looks for a shortcut number among the words of a booking request,
// e.g. "احجز الساعة 6".
func (c *Catalog) SlotSignal(text string) (string, bool) {
	for _, w := range tokens(NormalizeDigits(text)) {
		if title, ok := c.ShortcutSlot(w); ok {
			return title, true
		}
	}
	return "", false
}

// SlotMenu builds the slot selection list.
func (c *Catalog) SlotMenu(t texts) models.Menu {
	options := make([]models.MenuOption, 0, len(c.Slots))
	for _, s := range c.Slots {
		options = append(options, models.MenuOption{ID: slotPrefix + s.ID, Title: s.Title})
	}
	return models.Menu{Body: t.SlotMenuBody, Button: t.SlotMenuButton, Options: options}
}

// ServiceMenu builds the service selection list.
func (c *Catalog) ServiceMenu(t texts) models.Menu {
	options := make([]models.MenuOption, 0, len(c.Services))
	for _, s := range c.Services {
		options = append(options, models.MenuOption{ID: servicePrefix + s.ID, Title: s.Title})
	}
	return models.Menu{Body: t.ServiceMenuBody, Button: t.ServiceMenuButton, Options: options}
}
