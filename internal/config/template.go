package config

import (
	"context"
	"fmt"
	"os"

	"newsletter/internal/mailer"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"gopkg.in/yaml.v2"
)

// SSMGetParameterAPI allows reading a parameter from SSM Parameter Store.
type SSMGetParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// parseTemplate overlays YAML content of the form
//
//	subject: ...
//	text: ...
//	html: ...
//
// on the default template, so omitted fields keep their defaults.
func parseTemplate(b []byte) (mailer.Template, error) {
	t := mailer.DefaultTemplate()
	if err := yaml.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("could not parse template: %w", err)
	}
	return t, t.Validate()
}

// LoadTemplate returns the message template from TEMPLATE_FILE, the
// TEMPLATE_SSM_PARAM parameter, or the built-in default, in that order.
// api may be nil when no SSM parameter is configured.
func LoadTemplate(ctx context.Context, cfg Email, api SSMGetParameterAPI) (mailer.Template, error) {
	switch {
	case cfg.TemplateFile != "":
		b, err := os.ReadFile(cfg.TemplateFile)
		if err != nil {
			return mailer.Template{}, &ConfigurationError{"TEMPLATE_FILE", err}
		}
		t, err := parseTemplate(b)
		if err != nil {
			return t, &ConfigurationError{"TEMPLATE_FILE", err}
		}
		return t, nil

	case cfg.TemplateSSMParam != "":
		if api == nil {
			return mailer.Template{}, &ConfigurationError{"TEMPLATE_SSM_PARAM", fmt.Errorf("no SSM client")}
		}
		out, err := api.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(cfg.TemplateSSMParam),
			WithDecryption: true,
		})
		if err != nil {
			return mailer.Template{}, &ConfigurationError{"TEMPLATE_SSM_PARAM", fmt.Errorf("could not get SSM parameter: %w", err)}
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return mailer.Template{}, &ConfigurationError{"TEMPLATE_SSM_PARAM", fmt.Errorf("parameter %s has no value", cfg.TemplateSSMParam)}
		}
		t, err := parseTemplate([]byte(*out.Parameter.Value))
		if err != nil {
			return t, &ConfigurationError{"TEMPLATE_SSM_PARAM", err}
		}
		return t, nil

	default:
		return mailer.DefaultTemplate(), nil
	}
}
