package engine

// ApprovalPolicy decide se um depósito recém-criado já é aprovado
type ApprovalPolicy interface {
	AutoApprove() bool
}

// ManualApproval deixa todo depósito pendente para revisão do admin
type ManualApproval struct{}

func (ManualApproval) AutoApprove() bool { return false }

// AutoApproval aprova e credita na hora (ambientes fora de produção)
type AutoApproval struct{}

func (AutoApproval) AutoApprove() bool { return true }

// PolicyFor aplica a precedência: override explícito > ENV != production
func PolicyFor(env string, override *bool) ApprovalPolicy {
	auto := env != "production"
	if override != nil {
		auto = *override
	}
	if auto {
		return AutoApproval{}
	}
	return ManualApproval{}
}
