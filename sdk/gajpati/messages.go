package gajpati

import "strings"

// The backend reports failures as free-form message strings rather than
// structured codes, so known phrases are matched by substring and rewritten
// for the operator. Unrecognized messages pass through verbatim. Keep every
// pattern in these two tables; nothing else should inspect backend wording.

type messageRule struct {
	contains string
	message  string
}

var loginMessages = []messageRule{
	{"User does not exist", "No account found with this username."},
	{"Invalid user credentials", "Invalid username or password."},
	{"Account is deactivated", "Your account has been deactivated. Please contact an administrator."},
	{"Too many requests", "Too many login attempts. Please try again later."},
}

var signupMessages = []messageRule{
	{"Username can only contain", "Username may only contain letters, numbers and underscores."},
	{"already exists", "An account with this email or username already exists."},
	{"Password must be", "Password must be at least 8 characters long."},
	{"Invalid email", "Please enter a valid email address."},
	{"Fullname is required", "Please enter your full name."},
}

func translateLoginError(message string) string {
	return translateMessage(loginMessages, message)
}

func translateSignupError(message string) string {
	return translateMessage(signupMessages, message)
}

func translateMessage(rules []messageRule, message string) string {
	for _, rule := range rules {
		if strings.Contains(message, rule.contains) {
			return rule.message
		}
	}
	return message
}
