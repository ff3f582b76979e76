package conversation

import (
	"fmt"

	"clinicbot/models"
)

// texts is the reply wording for one language.
type texts struct {
	SlotMenuBody      string
	SlotMenuButton    string
	SlotOnClosedDay   string // %s: closed weekday
	AskName           string // %s: chosen slot
	AskNameAgain      string
	InvalidName       string
	AskPhone          string // %s: customer name
	AskPhoneAgain     string
	InvalidPhone      string
	ServiceMenuBody   string
	ServiceMenuButton string
	InvalidService    string
	BookingConfirmed  string // name, phone, service, slot
	BookingFailed     string

	AskCancelPhone string
	CancelNotFound string
	CancelDone     string // slot, service
	CancelFailed   string

	Location     string // clinic name, maps link
	OffersIntro  string
	OffersEmpty  string
	DoctorsIntro string
	DoctorsEmpty string
	ClosedDay    string // %s: closed weekday

	TranscriptionRetry   string
	UnsupportedInput     string
	AssistantUnavailable string
}

var replyTexts = map[models.Language]texts{
	models.LanguageArabic: {
		SlotMenuBody:      "اختر الموعد المناسب لك 🗓️",
		SlotMenuButton:    "المواعيد",
		SlotOnClosedDay:   "عذراً، العيادة مغلقة يوم %s. يرجى اختيار موعد آخر.",
		AskName:           "تم اختيار الموعد: %s ✅\nيرجى إرسال اسمك الكامل.",
		AskNameAgain:      "يرجى إرسال اسمك الكامل لإكمال الحجز.",
		InvalidName:       "الاسم غير صالح. يرجى إرسال اسمك الحقيقي بالحروف فقط.",
		AskPhone:          "شكراً %s 🌷\nيرجى إرسال رقم هاتفك (مثال: 07XXXXXXXX).",
		AskPhoneAgain:     "يرجى إرسال رقم هاتفك لإكمال الحجز (مثال: 07XXXXXXXX).",
		InvalidPhone:      "رقم الهاتف غير صحيح. يجب أن يبدأ بـ 07 ويتكون من 10 أرقام.",
		ServiceMenuBody:   "اختر الخدمة المطلوبة:",
		ServiceMenuButton: "الخدمات",
		InvalidService:    "يرجى اختيار خدمة من القائمة.",
		BookingConfirmed:  "تم تأكيد حجزك ✅\nالاسم: %s\nالهاتف: %s\nالخدمة: %s\nالموعد: %s",
		BookingFailed:     "تعذر حفظ الحجز حالياً، يرجى المحاولة لاحقاً بإعادة اختيار الخدمة.",

		AskCancelPhone: "لإلغاء الحجز، يرجى إرسال رقم الهاتف المستخدم في الحجز.",
		CancelNotFound: "لم يتم العثور على حجز بهذا الرقم.",
		CancelDone:     "تم إلغاء حجزك (%s - %s) بنجاح.",
		CancelFailed:   "تعذر إلغاء الحجز حالياً، يرجى المحاولة لاحقاً.",

		Location:     "📍 موقع %s:\n%s",
		OffersIntro:  "إليك أحدث عروضنا 🎁",
		OffersEmpty:  "لا توجد عروض حالياً، تابعونا قريباً.",
		DoctorsIntro: "تعرّف على أطبائنا 👩‍⚕️",
		DoctorsEmpty: "سنضيف صور أطبائنا قريباً. اكتب \"حجز\" لحجز موعد.",
		ClosedDay:    "العيادة مغلقة يوم %s. نستقبلكم باقي أيام الأسبوع، اكتب \"حجز\" لحجز موعد.",

		TranscriptionRetry:   "لم نتمكن من فهم الرسالة الصوتية، يرجى المحاولة مرة أخرى أو الكتابة.",
		UnsupportedInput:     "يرجى إرسال رسالة نصية أو صوتية.",
		AssistantUnavailable: "عذراً، لا يمكنني الإجابة الآن. يمكنك كتابة \"حجز\" لحجز موعد.",
	},
	models.LanguageEnglish: {
		SlotMenuBody:      "Please choose a time that suits you 🗓️",
		SlotMenuButton:    "Times",
		SlotOnClosedDay:   "Sorry, the clinic is closed on %s. Please pick another time.",
		AskName:           "Time selected: %s ✅\nPlease send your full name.",
		AskNameAgain:      "Please send your full name to continue the booking.",
		InvalidName:       "That doesn't look like a valid name. Please send your real name using letters only.",
		AskPhone:          "Thanks %s 🌷\nPlease send your phone number (e.g. 07XXXXXXXX).",
		AskPhoneAgain:     "Please send your phone number to continue the booking (e.g. 07XXXXXXXX).",
		InvalidPhone:      "Invalid phone number. It must start with 07 and be 10 digits long.",
		ServiceMenuBody:   "Choose the service you need:",
		ServiceMenuButton: "Services",
		InvalidService:    "Please pick a service from the list.",
		BookingConfirmed:  "Your booking is confirmed ✅\nName: %s\nPhone: %s\nService: %s\nTime: %s",
		BookingFailed:     "We couldn't save your booking right now. Please try again later by choosing the service again.",

		AskCancelPhone: "To cancel, please send the phone number used for the booking.",
		CancelNotFound: "No booking was found for this number.",
		CancelDone:     "Your booking (%s - %s) has been cancelled.",
		CancelFailed:   "We couldn't cancel your booking right now. Please try again later.",

		Location:     "📍 %s location:\n%s",
		OffersIntro:  "Here are our latest offers 🎁",
		OffersEmpty:  "There are no offers right now, stay tuned.",
		DoctorsIntro: "Meet our doctors 👩‍⚕️",
		DoctorsEmpty: "Our doctors' profiles are coming soon. Type \"book\" to make an appointment.",
		ClosedDay:    "The clinic is closed on %s. We are open the rest of the week, type \"book\" to make an appointment.",

		TranscriptionRetry:   "We couldn't understand the voice message, please try again or type your message.",
		UnsupportedInput:     "Please send a text or voice message.",
		AssistantUnavailable: "Sorry, I can't answer right now. Type \"book\" to make an appointment.",
	},
}

func textsFor(lang models.Language) texts {
	if t, ok := replyTexts[lang]; ok {
		return t
	}
	return replyTexts[models.LanguageArabic]
}

func (t texts) bookingConfirmed(b models.Booking) string {
	return fmt.Sprintf(t.BookingConfirmed, b.Name, b.Phone, b.Service, b.AppointmentSlot)
}

func (t texts) cancelDone(b models.Booking) string {
	return fmt.Sprintf(t.CancelDone, b.AppointmentSlot, b.Service)
}
