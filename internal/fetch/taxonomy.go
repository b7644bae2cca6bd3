// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import "fmt"

// topicAbbrs maps the top-level arXiv topics to their listing abbreviations.
// Physics has no single abbreviation; callers must pick a physics subtopic.
var topicAbbrs = map[string]string{
	"Physics": "",
	"Mathematics": "math",
	"Computer Science": "cs",
	"Quantitative Biology": "q-bio",
	"Quantitative Finance": "q-fin",
	"Statistics": "stat",
	"Electrical Engineering and Systems Science": "eess",
	"Economics": "econ",
}

// physicsAbbrs maps physics subtopics to their listing abbreviations.
var physicsAbbrs = map[string]string{
	"Astrophysics": "astro-ph",
	"Condensed Matter": "cond-mat",
	"General Relativity and Quantum Cosmology": "gr-qc",
	"High Energy Physics - Experiment": "hep-ex",
	"High Energy Physics - Lattice": "hep-lat",
	"High Energy Physics - Phenomenology": "hep-ph",
	"High Energy Physics - Theory": "hep-th",
	"Mathematical Physics": "math-ph",
	"Nonlinear Sciences": "nlin",
	"Nuclear Experiment": "nucl-ex",
	"Nuclear Theory": "nucl-th",
	"Physics": "physics",
	"Quantum Physics": "quant-ph",
}

// categoriesByTopic lists the subject categories arXiv files under each
// topic, used to validate category filters against the chosen topics.
var categoriesByTopic = map[string][]string{
	"Computer Science": {
		"Artificial Intelligence", "Computation and Language",
		"Computational Complexity", "Computational Engineering, Finance, and Science",
		"Computational Geometry", "Computer Science and Game Theory",
		"Computer Vision and Pattern Recognition", "Computers and Society",
		"Cryptography and Security", "Data Structures and Algorithms",
		"Databases", "Digital Libraries", "Discrete Mathematics",
		"Distributed, Parallel, and Cluster Computing", "Emerging Technologies",
		"Formal Languages and Automata Theory", "General Literature", "Graphics",
		"Hardware Architecture", "Human-Computer Interaction",
		"Information Retrieval", "Information Theory", "Logic in Computer Science",
		"Machine Learning", "Mathematical Software", "Multiagent Systems",
		"Multimedia", "Networking and Internet Architecture",
		"Neural and Evolutionary Computing", "Numerical Analysis",
		"Operating Systems", "Other Computer Science", "Performance",
		"Programming Languages", "Robotics", "Social and Information Networks",
		"Software Engineering", "Sound", "Symbolic Computation",
		"Systems and Control",
	},
	"Electrical Engineering and Systems Science": {
		"Audio and Speech Processing", "Image and Video Processing",
		"Signal Processing", "Systems and Control",
	},
	"Mathematics": {
		"Algebraic Geometry", "Algebraic Topology", "Analysis of PDEs",
		"Category Theory", "Classical Analysis and ODEs", "Combinatorics",
		"Commutative Algebra", "Complex Variables", "Differential Geometry",
		"Dynamical Systems", "Functional Analysis", "General Mathematics",
		"General Topology", "Geometric Topology", "Group Theory",
		"History and Overview", "Information Theory", "K-Theory and Homology",
		"Logic", "Mathematical Physics", "Metric Geometry", "Number Theory",
		"Numerical Analysis", "Operator Algebras", "Optimization and Control",
		"Probability", "Quantum Algebra", "Representation Theory",
		"Rings and Algebras", "Spectral Theory", "Statistics Theory",
		"Symplectic Geometry",
	},
	"Statistics": {
		"Applications", "Computation", "Machine Learning", "Methodology",
		"Other Statistics", "Statistics Theory",
	},
	"Quantitative Biology": {
		"Biomolecules", "Cell Behavior", "Genomics", "Molecular Networks",
		"Neurons and Cognition", "Other Quantitative Biology",
		"Populations and Evolution", "Quantitative Methods",
		"Subcellular Processes", "Tissues and Organs",
	},
	"Quantitative Finance": {
		"Computational Finance", "Economics", "General Finance",
		"Mathematical Finance", "Portfolio Management", "Pricing of Securities",
		"Risk Management", "Statistical Finance",
		"Trading and Market Microstructure",
	},
	"Economics": {"Econometrics", "General Economics", "Theoretical Economics"},
	"Physics": {
		"Accelerator Physics", "Applied Physics",
		"Atmospheric and Oceanic Physics", "Atomic and Molecular Clusters",
		"Atomic Physics", "Biological Physics", "Chemical Physics",
		"Classical Physics", "Computational Physics",
		"Data Analysis, Statistics and Probability", "Fluid Dynamics",
		"General Physics", "Geophysics", "History and Philosophy of Physics",
		"Instrumentation and Detectors", "Medical Physics", "Optics",
		"Physics and Society", "Physics Education", "Plasma Physics",
		"Popular Physics", "Space Physics",
	},
	"Astrophysics": {
		"Astrophysics of Galaxies", "Cosmology and Nongalactic Astrophysics",
		"Earth and Planetary Astrophysics", "High Energy Astrophysical Phenomena",
		"Instrumentation and Methods for Astrophysics",
		"Solar and Stellar Astrophysics",
	},
	"Condensed Matter": {
		"Disordered Systems and Neural Networks", "Materials Science",
		"Mesoscale and Nanoscale Physics", "Other Condensed Matter",
		"Quantum Gases", "Soft Condensed Matter", "Statistical Mechanics",
		"Strongly Correlated Electrons", "Superconductivity",
	},
	"Nonlinear Sciences": {
		"Adaptation and Self-Organizing Systems",
		"Cellular Automata and Lattice Gases", "Chaotic Dynamics",
		"Exactly Solvable and Integrable Systems",
		"Pattern Formation and Solitons",
	},
}

// FieldAbbr resolves a topic name to its arXiv listing abbreviation. The
// bare "Physics" topic is rejected: arXiv has no combined physics listing,
// so a physics subtopic must be named instead.
func FieldAbbr(topic string) (string, error) {
	if topic == "Physics" {
		return "", fmt.Errorf("topic %q requires a physics subtopic (e.g. \"Quantum Physics\")", topic)
	}
	if abbr, ok := physicsAbbrs[topic]; ok {
		return abbr, nil
	}
	if abbr, ok := topicAbbrs[topic]; ok {
		return abbr, nil
	}
	return "", fmt.Errorf("invalid topic %q", topic)
}

// ValidCategories returns the subset of the requested categories that arXiv
// actually files under the given topic.
func ValidCategories(topic string, requested []string) []string {
	valid := categoriesByTopic[topic]
	if len(valid) == 0 || len(requested) == 0 {
		return nil
	}
	known := make(map[string]bool, len(valid))
	for _, c := range valid {
		known[c] = true
	}
	var out []string
	for _, c := range requested {
		if known[c] {
			out = append(out, c)
		}
	}
	return out
}
