/*
Package config loads the description of a batch run: the ordered replacement
rules plus the folders, globs and limits the batch driver works with.

	            +-------------+
	            |   Config    |
	            |  (Run Plan) |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  JSON   |   |  YAML   |   |   HCL   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Select a parser from the file name
- Accept the legacy config.json layout (modulos/reemplazo_texto/reglas)
- Apply defaults and resolve folders relative to the config file
- Validate every rule before any archive is opened

🔄 Flow:
1. Read the file
2. Parse format-specific syntax into a Config
3. Apply command line overrides
4. Validate (defaults, globs, rules)

Every failure is a rule.ConfigurationError. Rules whose search and replace
are identical are valid and surface through Config.Warnings.

🔍 Example (HCL):

	input_dir  = "data_in"
	output_dir = "data_out"
	postfix    = "_MODIFICADO"

	rule {
	  search  = "192.168.1.100"
	  replace = "10.0.0.5"
	  type    = "ip"
	}
*/
package config
