package otp

import (
	"context"
	"errors"
	"net/http"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

const statusApproved = "approved"

// verifyAPI is the slice of the Twilio Verify v2 client used here.
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// TwilioProvider sends codes over SMS through Twilio Verify.
type TwilioProvider struct {
	api        verifyAPI
	serviceSID string
}

func NewTwilioProvider(accountSID, authToken, serviceSID string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{api: client.VerifyV2, serviceSID: serviceSID}
}

func (p *TwilioProvider) Send(_ context.Context, phone string) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel("sms")

	_, err := p.api.CreateVerification(p.serviceSID, params)
	return err
}

func (p *TwilioProvider) Check(_ context.Context, phone, code string) (bool, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	resp, err := p.api.CreateVerificationCheck(p.serviceSID, params)
	if err != nil {
		// Twilio answers 404 once a verification expired or was consumed
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return resp.Status != nil && *resp.Status == statusApproved, nil
}
