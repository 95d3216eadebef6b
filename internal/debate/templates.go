// Package debate generates the courtroom side of a session: mock lawyer
// arguments, judge events, verdict summaries and random cases. Every
// collaborator call goes through a Dispatcher so a slow generator can
// never stall a request.
package debate

// CaseSlot is replaced by the case text in argument templates.
const CaseSlot = "{case}"

// ProsecutionTemplates are the prosecution's argument forms.
var ProsecutionTemplates = []string{
	"Based on precedent, I argue that {case} strongly supports our position.",
	"Considering the facts and relevant legal principles, {case} clearly favors the prosecution.",
	"Examining the case details, it is evident that {case} warrants a favorable outcome for the prosecution.",
}

// DefenseTemplates are the defense's argument forms.
var DefenseTemplates = []string{
	"While the facts suggest otherwise, {case} allows room for a creative defense.",
	"Taking a broader view, {case} presents unique angles that favor the defense.",
	"Considering all aspects, {case} may support an alternative interpretation favoring the defense.",
}

// JudgeEvents are the procedural twists the judge can introduce.
var JudgeEvents = []string{
	"The judge allows additional evidence to be submitted.",
	"The judge raises a procedural objection.",
	"A surprise witness enters the courtroom.",
	"The judge requests clarifications from both sides.",
	"The courtroom experiences a brief recess.",
}

// Scenarios are short absurd case prompts.
var Scenarios = []string{
	"A man sues a parrot for defamation.",
	"A robot barista refuses service; customer sues for discrimination.",
	"A landlord sues a ghost for unpaid rent.",
}

// NoPrecedent is cited when retrieval finds nothing.
const NoPrecedent = "No relevant precedent was found."
