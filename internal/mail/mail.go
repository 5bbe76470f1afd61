package mail

import (
	"context"
	"fmt"
)

// Message is one outbound email
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// EmailService delivers messages best-effort. Implementations must never
// block the caller on provider latency.
type EmailService interface {
	SendMessages(ctx context.Context, messages ...*Message)
}

// InvitationMessage is sent when an admin registers a user and the service
// generated their first password
func InvitationMessage(to, schoolName, password string) *Message {
	return &Message{
		To:      to,
		Subject: fmt.Sprintf("You have been invited to %s on Careers From Here", schoolName),
		Body: fmt.Sprintf(
			"An account has been created for you on the %s testimonial portal.\n\n"+
				"Sign in with this email address and the temporary password below, then change it.\n\n"+
				"Temporary password: %s\n", schoolName, password),
	}
}

// WelcomeMessage is sent after self-registration while approval is pending
func WelcomeMessage(to, name string) *Message {
	return &Message{
		To:      to,
		ToName:  name,
		Subject: "Welcome to Careers From Here",
		Body: fmt.Sprintf(
			"Hi %s,\n\nThanks for registering. A school administrator will review your "+
				"account shortly; you will be able to sign in once it has been approved.\n", name),
	}
}

// AccountApprovedMessage is sent when an admin approves a pending account
func AccountApprovedMessage(to, name string) *Message {
	return &Message{
		To:      to,
		ToName:  name,
		Subject: "Your Careers From Here account is ready",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour account has been approved. You can now sign in and use the portal.\n", name),
	}
}

// RegistrationNoticeMessage is sent to a school's admins when someone
// self-registers and awaits approval
func RegistrationNoticeMessage(to, adminName, applicantName, applicantEmail string) *Message {
	return &Message{
		To:      to,
		ToName:  adminName,
		Subject: "New account awaiting approval",
		Body: fmt.Sprintf(
			"Hi %s,\n\n%s (%s) has registered on the portal and is waiting for "+
				"an administrator to approve the account.\n", adminName, applicantName, applicantEmail),
	}
}

// VideoUploadedMessage is sent to a school's admins when an alumni records a
// new testimonial awaiting review
func VideoUploadedMessage(to, adminName, ownerName, title string) *Message {
	return &Message{
		To:      to,
		ToName:  adminName,
		Subject: "New testimonial awaiting review",
		Body: fmt.Sprintf(
			"Hi %s,\n\n%s has uploaded a new testimonial, %q, which is waiting "+
				"for review and approval.\n", adminName, ownerName, title),
	}
}

// VideoReceivedMessage confirms an upload to the alumni who recorded it
func VideoReceivedMessage(to, name, title string) *Message {
	return &Message{
		To:      to,
		ToName:  name,
		Subject: "Your testimonial has been received",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour testimonial %q has been received. A school administrator "+
				"will review it shortly and publish it once approved.\n", name, title),
	}
}

// VideoApprovedMessage is sent to the owner when their testimonial goes live
func VideoApprovedMessage(to, name string) *Message {
	return &Message{
		To:      to,
		ToName:  name,
		Subject: "Your testimonial has been published",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour video testimonial has been approved and is now visible to students.\n", name),
	}
}
