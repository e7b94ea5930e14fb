package validation

import (
	"regexp"

	"contacts-service/models"
)

var (
	emailRegexp = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

	// International phone format: leading +, country code, then digits
	// optionally grouped with spaces, dashes or parentheses.
	phoneRegexp = regexp.MustCompile(`^\+[1-9][0-9 ()-]{5,18}[0-9]$`)
)

var subscriptions = []string{
	models.SubscriptionStarter,
	models.SubscriptionPro,
	models.SubscriptionBusiness,
}

// Register validates POST /users/register bodies.
var Register = Schema{
	Fields: []Field{
		{
			Name: "name", Label: "Name", Type: String,
			Required: true, RequiredMessage: `"Name" cannot be empty`,
			MinLen: 3,
		},
		{
			Name: "password", Label: "Password", Type: String,
			Required: true, RequiredMessage: `"Password" cannot be empty`,
			MinLen: 6,
		},
		{
			Name: "email", Label: "Email", Type: String,
			Required: true,
			Pattern:  emailRegexp, PatternMessage: `"Email" doesn't look like an email`,
		},
	},
}

// Login validates POST /users/login bodies.
var Login = Schema{
	Fields: []Field{
		{
			Name: "password", Label: "Password", Type: String,
			Required: true, RequiredMessage: `"Password" cannot be empty`,
			MinLen: 6,
		},
		{
			Name: "email", Label: "Email", Type: String,
			Required: true,
			Pattern:  emailRegexp, PatternMessage: `"Email" doesn't look like an email`,
		},
	},
}

// Subscription validates PATCH /users bodies.
var Subscription = Schema{
	Fields: []Field{
		{
			Name: "subscription", Label: "Subscription", Type: String,
			Required: true,
			Enum:     subscriptions,
		},
	},
}

// ResendVerification validates POST /users/verify bodies.
var ResendVerification = Schema{
	Fields: []Field{
		{
			Name: "email", Label: "Email", Type: String,
			Required: true,
			Pattern:  emailRegexp, PatternMessage: `"Email" doesn't look like an email`,
		},
	},
}

// ContactAdd validates POST /contacts bodies.
var ContactAdd = Schema{
	Fields: []Field{
		{
			Name: "name", Label: "Name", Type: String,
			Required: true, RequiredMessage: `"Name" is required`,
			MinLen: 3, MaxLen: 30,
		},
		{
			Name: "email", Label: "Email", Type: String,
			Required: true, RequiredMessage: `"Email" is required`,
			Pattern: emailRegexp, PatternMessage: `"Email" doesn't look like an email`,
		},
		{
			Name: "phone", Label: "Phone", Type: String,
			Required: true, RequiredMessage: `"Phone" is required`,
			Pattern: phoneRegexp, PatternMessage: `"Phone" doesn't look like a phone number`,
		},
		{
			Name: "favorite", Label: "Favorite", Type: Bool,
			Default: false,
		},
	},
}

// ContactUpdate validates PUT /contacts/{id} bodies; at least one known
// field must be present.
var ContactUpdate = Schema{
	Fields: []Field{
		{
			Name: "name", Label: "Name", Type: String,
			MinLen: 3, MaxLen: 30,
		},
		{
			Name: "email", Label: "Email", Type: String,
			Pattern: emailRegexp, PatternMessage: `"Email" doesn't look like an email`,
		},
		{
			Name: "phone", Label: "Phone", Type: String,
			Pattern: phoneRegexp, PatternMessage: `"Phone" doesn't look like a phone number`,
		},
		{
			Name: "favorite", Label: "Favorite", Type: Bool,
		},
	},
	MinPresent:        1,
	MinPresentMessage: "Missing fields",
}

// StatusUpdate validates PATCH /contacts/{id}/favorite bodies.
var StatusUpdate = Schema{
	Fields: []Field{
		{
			Name: "favorite", Label: "Favorite", Type: Bool,
			Required: true, RequiredMessage: "Missing field favorite",
		},
	},
}
