package conversation

// Keyword lists are matched as case-insensitive substrings after fold.
// Several categories share vocabulary with booking ("price", "موعد"), which is
// why classification order matters.

var cancellationKeywords = []string{
	"الغاء", "إلغاء", "الغي", "ألغي", "الغيه", "كنسل", "كانسل",
	"cancel", "cancellation", "unbook",
}

var locationKeywords = []string{
	"الموقع", "موقع", "العنوان", "عنوان", "وين مكانكم", "وين العيادة", "مكان العيادة", "لوكيشن",
	"location", "address", "directions", "where are you", "map",
}

var offersKeywords = []string{
	"عروض", "العروض", "عرض", "خصم", "خصومات", "سعر", "اسعار", "الأسعار", "بكم", "شكد السعر",
	"offer", "offers", "discount", "price", "prices", "cost",
}

var doctorsKeywords = []string{
	"دكتور", "الدكتور", "دكتورة", "دكاترة", "طبيب", "طبيبة", "اطباء", "الأطباء",
	"doctor", "doctors", "dentist", "physician",
}

var bookingKeywords = []string{
	"حجز", "احجز", "أحجز", "احجزلي", "موعد", "مواعيد",
	"book", "booking", "appointment", "reserve", "reservation", "schedule",
}

// questionWords open a question when they are the first word of a message.
var questionWords = []string{
	"شنو", "شلون", "شكد", "ليش", "متى", "وين", "هل", "ماذا", "كيف", "كم", "لماذا", "منو", "ما", "اشلون",
	"what", "how", "when", "where", "why", "who", "which", "can", "could", "is", "are", "do", "does",
}
