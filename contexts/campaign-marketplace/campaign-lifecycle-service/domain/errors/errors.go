package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one kind so callers can
// classify with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTransactionConflict = errors.New("transaction conflict")
)

var (
	ErrCampaignNotFound     = fmt.Errorf("campaign %w", ErrNotFound)
	ErrInvitationNotFound   = fmt.Errorf("invitation %w", ErrNotFound)
	ErrContentNotFound      = fmt.Errorf("content %w", ErrNotFound)
	ErrApplicationNotFound  = fmt.Errorf("application %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrNotCampaignOwner     = fmt.Errorf("%w: actor is not the campaign brand owner", ErrUnauthorized)
	ErrNotInvitee           = fmt.Errorf("%w: actor is not the invited influencer", ErrUnauthorized)
	ErrNotContentCreator    = fmt.Errorf("%w: actor is not the content creator", ErrUnauthorized)
	ErrNotAcceptedApplicant = fmt.Errorf("%w: actor has no accepted application on the campaign", ErrUnauthorized)
	ErrNotRecipient         = fmt.Errorf("%w: actor is not the notification recipient", ErrUnauthorized)

	ErrInvitationAlreadyResponded = fmt.Errorf("%w: invitation already responded", ErrInvalidState)
	ErrDuplicateInvitation        = fmt.Errorf("%w: a pending invitation already exists for this influencer", ErrInvalidState)
	ErrDuplicateApplication       = fmt.Errorf("%w: influencer already applied to this campaign", ErrInvalidState)
	ErrApplicationAlreadyReviewed = fmt.Errorf("%w: application already reviewed", ErrInvalidState)
	ErrCampaignNotActive          = fmt.Errorf("%w: campaign is not active", ErrInvalidState)
	ErrCampaignClosed             = fmt.Errorf("%w: campaign is completed or cancelled", ErrInvalidState)
	ErrInvalidContentTransition   = fmt.Errorf("%w: content status transition not allowed", ErrInvalidState)

	ErrInvalidCampaignInput   = fmt.Errorf("%w: campaign", ErrInvalidInput)
	ErrInvalidInvitationInput = fmt.Errorf("%w: invitation", ErrInvalidInput)
	ErrInvalidResponse        = fmt.Errorf("%w: response must be accepted or rejected", ErrInvalidInput)
	ErrInvalidContentInput    = fmt.Errorf("%w: content", ErrInvalidInput)
	ErrInvalidReviewDecision  = fmt.Errorf("%w: review decision must be approved or rejected", ErrInvalidInput)
)
