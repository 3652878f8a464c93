package bot

const (
	textStart = "Hi! I am a notification bot. Use /register to sign up."

	textHint           = "Use /register to sign up or /check_notifications to fetch your notifications."
	textUnknownCommand = "I don't know that command"

	textAskUsername = "Please enter a username:"
	textAskEmail    = "Please enter your email:"
	textAskPassword = "Please enter a password:"

	textInvalidEmail       = "That doesn't look like an email address. Try again or /cancel."
	textEmailTaken         = "This email is already registered. Enter another one or /cancel."
	textAlreadyRegistered  = "You are already registered. Use /update_info to refresh your details."
	textRegistered         = "Registration successful!"
	textRegistrationFailed = "Registration failed. Please try again later."

	textCancelled       = "Registration cancelled."
	textNothingToCancel = "Nothing to cancel."

	textNotRegistered      = "You are not registered. Use /register to sign up."
	textNoTelegramUsername = "You have no Telegram username set. Please set one and try again."
	textInfoUpdated        = "Your info has been updated!"

	textAllSent         = "All new notifications sent."
	textOnlyFuture      = "You have notifications scheduled for a future time."
	textNoNotifications = "You have no new notifications."
	textCheckError      = "Could not check your notifications. Please try again later."

	textGenericError = "Something went wrong. Please try again later."
)
